package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefenceIsIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain text",
		"  {\"a\":1}  ",
		"```json\n{\"a\":1}\n```",
		"```JSON\n{\"a\":1}```",
		"```\n[1,2]\n```\n",
		"```json\n```json\n{\"nested\":true}\n```\n```",
		"```",
		"``````",
		"```go\nfmt.Println()\n```",
		"text with ``` inside",
	}
	for _, in := range inputs {
		once := Defence(in)
		assert.Equal(t, once, Defence(once), "input %q", in)
	}
}

func TestDefenceStripsFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"inline json tag", "```json{\"a\":1}```", `{"a":1}`},
		{"whitespace only", "  \n{\"a\":1}\n ", `{"a":1}`},
		{"already clean", `{"a":1}`, `{"a":1}`},
		{"nested fences", "```json\n```json\n{\"a\":1}\n```\n```", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Defence(tt.in))
		})
	}
}

func TestInterpretFreeChatIsVerbatim(t *testing.T) {
	raw := "```go\nfmt.Println(\"hi\")\n```\n"
	res := Interpret(FreeChat, raw)
	assert.Equal(t, KindPlainText, res.Kind)
	assert.Equal(t, raw, res.Text)
	assert.Equal(t, raw, res.AssistantText())
}

func TestInterpretRoadmapFencedAliases(t *testing.T) {
	raw := "```json\n{\"title\":\"DevOps Engineer\",\"steps\":[{\"phase\":\"Foundations\",\"details\":\"Linux, Git\"}]}\n```"

	res := Interpret(RoadmapRequest, raw)

	require.Equal(t, KindStructured, res.Kind)
	require.NotNil(t, res.Roadmap)
	assert.Equal(t, "DevOps Engineer", res.Roadmap.RoleTitle)
	require.Len(t, res.Roadmap.Phases, 1)
	phase := res.Roadmap.Phases[0]
	assert.Equal(t, "Foundations", phase.Title)
	assert.Contains(t, phase.Description, "Linux, Git")
	assert.Equal(t, 0, phase.SequenceIndex)
	assert.Equal(t, "Generated roadmap for DevOps Engineer", res.AssistantText())
}

func TestParseRoadmapRequestedFormat(t *testing.T) {
	raw := `{
	  "roleTitle": "Data Engineer",
	  "overview": "From SQL to streaming",
	  "phases": [
	    {"title": "SQL", "estimatedDuration": "2 weeks", "description": "Queries", "topics": ["joins", "window functions"], "milestoneProject": "Sales report"},
	    {"title": "Python", "estimatedDuration": "3 weeks", "topics": "pandas, airflow"},
	    {"title": "Kafka", "sequenceIndex": 9}
	  ]
	}`

	plan, err := ParseRoadmap(raw)
	require.NoError(t, err)

	assert.Equal(t, "Data Engineer", plan.RoleTitle)
	assert.Equal(t, "From SQL to streaming", plan.Overview)
	require.Len(t, plan.Phases, 3)
	for i, p := range plan.Phases {
		assert.Equal(t, i, p.SequenceIndex)
	}
	assert.Equal(t, []string{"joins", "window functions"}, plan.Phases[0].Topics)
	assert.Equal(t, "Sales report", plan.Phases[0].MilestoneProject)
	assert.Equal(t, []string{"pandas", "airflow"}, plan.Phases[1].Topics)
	assert.Equal(t, []string{}, plan.Phases[2].Topics)
}

func TestParseRoadmapBareArray(t *testing.T) {
	raw := `[{"step":1,"title":"Basics","duration":"1 week","description":"Start","resources":["Traversy Media React Crash Course"]}]`

	plan, err := ParseRoadmap(raw)
	require.NoError(t, err)
	assert.Empty(t, plan.RoleTitle)
	require.Len(t, plan.Phases, 1)
	assert.Equal(t, "1 week", plan.Phases[0].EstimatedDuration)
	assert.Equal(t, []string{"Traversy Media React Crash Course"}, plan.Phases[0].Topics)
}

func TestParseRoadmapProseWrapped(t *testing.T) {
	raw := "Here is your roadmap:\n{\"roleTitle\":\"QA\",\"phases\":[{\"title\":\"Testing basics\"}]}\nGood luck!"

	plan, err := ParseRoadmap(raw)
	require.NoError(t, err)
	assert.Equal(t, "QA", plan.RoleTitle)
}

func TestParseRoadmapRejects(t *testing.T) {
	tests := map[string]string{
		"not json":        "not json at all",
		"empty phases":    `{"roleTitle":"X","phases":[]}`,
		"missing phases":  `{"roleTitle":"X"}`,
		"untitled phase":  `{"phases":[{"title":"A"},{"description":"no title"}]}`,
		"scalar document": `42`,
		"phases not list": `{"phases":"learn stuff"}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRoadmap(raw)
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestInterpretMalformedRoadmapKeepsRaw(t *testing.T) {
	res := Interpret(RoadmapRequest, "not json at all")

	assert.Equal(t, KindFailure, res.Kind)
	assert.Equal(t, ErrorKindMalformedResponse, res.ErrorKind)
	assert.Equal(t, "not json at all", res.Raw)
	assert.Equal(t, "not json at all", res.AssistantText())
}

func TestInterpretCritiqueClampsScore(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"above range", `{"score": 142, "summary": "Strong", "strengths": ["Go"], "weaknesses": []}`, 100},
		{"below range", `{"score": -5, "summary": "Weak"}`, 0},
		{"in range", `{"score": 77}`, 77},
		{"float", `{"score": 81.6}`, 82},
		{"numeric string", `{"score": "64/100"}`, 64},
		{"percent string", `{"score": "90%"}`, 90},
		{"huge number", `{"score": 1e20}`, 100},
		{"huge string", `{"score": "1e20"}`, 100},
		{"past int64", `{"score": 9223372036854775808}`, 100},
		{"huge negative", `{"score": -1e20}`, 0},
		{"overflowing string", `{"score": "1e400"}`, 100},
		{"line format huge", "Score: 99999999999999999999\nContent Improvements:\n- more detail", 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Interpret(ResumeCritiqueRequest, tt.raw)
			require.Equal(t, KindStructured, res.Kind)
			require.NotNil(t, res.Critique)
			assert.Equal(t, tt.want, res.Critique.Score)
		})
	}
}

func TestInterpretCritiqueRejectsNaNScore(t *testing.T) {
	res := Interpret(ResumeCritiqueRequest, `{"score": "NaN"}`)
	assert.Equal(t, KindFailure, res.Kind)
	assert.Equal(t, ErrorKindMalformedResponse, res.ErrorKind)
}

func TestParseCritiqueDefaults(t *testing.T) {
	c, err := ParseCritique(`{"score": 50, "summary": "ok"}`)
	require.NoError(t, err)
	assert.NotNil(t, c.Strengths)
	assert.NotNil(t, c.Weaknesses)
	assert.Empty(t, c.Strengths)
	assert.Empty(t, c.Weaknesses)
}

func TestParseCritiqueGroupedImprovements(t *testing.T) {
	raw := `{
	  "score": 70,
	  "summary": "Solid",
	  "strengths": ["Clear layout"],
	  "weaknesses": ["No metrics"],
	  "improvements": [
	    {"category": "Content Improvements", "items": ["Quantify impact"]},
	    {"category": "Skills Improvements", "items": ["Group skills"]}
	  ]
	}`
	c, err := ParseCritique(raw)
	require.NoError(t, err)
	require.Len(t, c.Improvements, 2)
	assert.Equal(t, "Content Improvements", c.Improvements[0].Category)
	assert.Equal(t, []string{"Quantify impact"}, c.Improvements[0].Items)

	mapped, err := ParseCritique(`{"score": 70, "improvements": {"Project Improvements": ["Add links"]}}`)
	require.NoError(t, err)
	require.Len(t, mapped.Improvements, 1)
	assert.Equal(t, "Project Improvements", mapped.Improvements[0].Category)
}

func TestParseCritiqueLineFormat(t *testing.T) {
	raw := `Score: 72

Content Improvements:
- Quantify achievements
- Remove the objective section

Skills Improvements:
- Group tools by category

ATS / Formatting Improvements:
- Use standard headings`

	c, err := ParseCritique(raw)
	require.NoError(t, err)
	assert.Equal(t, 72, c.Score)
	require.Len(t, c.Improvements, 3)
	assert.Equal(t, "ATS / Formatting Improvements", c.Improvements[2].Category)
	assert.Equal(t, []string{"Quantify achievements", "Remove the objective section"}, c.Improvements[0].Items)
}

func TestParseCritiqueRejects(t *testing.T) {
	for _, raw := range []string{"not json at all", `{"summary":"no score"}`, `{"score":"high"}`, `[1,2]`} {
		_, err := ParseCritique(raw)
		assert.ErrorIs(t, err, ErrMalformedResponse, raw)
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, ErrorKindTransport, KindOf(ErrTransport))
	assert.Equal(t, ErrorKindMalformedResponse, KindOf(malformedErr()))
	assert.Equal(t, ErrorKind(""), KindOf(nil))
}

func malformedErr() error {
	_, err := ParseRoadmap("nope")
	return err
}

package generation

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

const fence = "```"

// Defence strips markdown code fences and surrounding whitespace from model
// output. It strips until nothing changes, so applying it twice is the same as
// applying it once.
func Defence(text string) string {
	for {
		next := stripFence(text)
		if next == text {
			return text
		}
		text = next
	}
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, fence) {
		s = s[len(fence):]
		// language tag such as "json" on the opening fence line
		tag := 0
		for tag < len(s) && isTagByte(s[tag]) {
			tag++
		}
		if tag > 0 && (tag == len(s) || s[tag] == '\n' || s[tag] == '\r' || strings.EqualFold(s[:tag], "json")) {
			s = s[tag:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, fence)
	return strings.TrimSpace(s)
}

func isTagByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '_' || b == '-' || b == '+'
}

// Interpret converts raw model text into a Result for the intent that
// produced it. Free chat text is returned verbatim; structured intents either
// parse and validate or fail with ErrorKindMalformedResponse carrying raw.
func Interpret(intent Intent, raw string) Result {
	switch intent {
	case RoadmapRequest:
		plan, err := ParseRoadmap(Defence(raw))
		if err != nil {
			return Failure(ErrorKindMalformedResponse, raw)
		}
		return StructuredRoadmap(plan)
	case ResumeCritiqueRequest:
		critique, err := ParseCritique(Defence(raw))
		if err != nil {
			return Failure(ErrorKindMalformedResponse, raw)
		}
		return StructuredCritique(critique)
	default:
		return PlainText(raw)
	}
}

// AssistantText is the text shown to the user for this result: the chat reply,
// a short confirmation for structured results, or the raw model text when the
// structured contract was not met.
func (r Result) AssistantText() string {
	switch r.Kind {
	case KindStructured:
		if r.Roadmap != nil {
			role := r.Roadmap.RoleTitle
			if role == "" {
				role = "your goal"
			}
			return fmt.Sprintf("Generated roadmap for %s", role)
		}
		if r.Critique != nil {
			return fmt.Sprintf("Resume analysed: scored %d/100", r.Critique.Score)
		}
		return ""
	case KindFailure:
		return r.Raw
	default:
		return r.Text
	}
}

// ParseRoadmap parses defenced model output into a RoadmapPlan. It accepts the
// object format requested by the roadmap prompt, a bare array of phases, and
// the common field-name variants models produce. Phase SequenceIndex always
// equals the phase position.
func ParseRoadmap(text string) (RoadmapPlan, error) {
	doc, ok := jsonDocument(text)
	if !ok {
		return RoadmapPlan{}, fmt.Errorf("%w: roadmap is not valid JSON", ErrMalformedResponse)
	}

	var plan RoadmapPlan
	var phases gjson.Result
	switch {
	case doc.IsArray():
		phases = doc
	case doc.IsObject():
		plan.RoleTitle = firstString(doc, "roleTitle", "role_title", "title", "role")
		plan.Overview = firstString(doc, "overview", "summary", "description")
		phases = firstField(doc, "phases", "steps", "roadmap", "stages")
	default:
		return RoadmapPlan{}, fmt.Errorf("%w: roadmap must be an object or an array", ErrMalformedResponse)
	}

	if !phases.IsArray() {
		return RoadmapPlan{}, fmt.Errorf("%w: roadmap has no phases", ErrMalformedResponse)
	}

	for i, p := range phases.Array() {
		var phase Phase
		switch {
		case p.IsObject():
			phase = Phase{
				Title:             firstString(p, "title", "phase", "name", "stage"),
				EstimatedDuration: firstString(p, "estimatedDuration", "estimated_duration", "duration", "timeframe"),
				Description:       firstString(p, "description", "details", "advice", "summary"),
				Topics:            stringList(firstField(p, "topics", "resources", "skills")),
				MilestoneProject:  firstString(p, "milestoneProject", "milestone_project", "project", "milestone"),
			}
		case p.Type == gjson.String:
			phase = Phase{Title: strings.TrimSpace(p.String()), Topics: []string{}}
		}
		if phase.Title == "" {
			return RoadmapPlan{}, fmt.Errorf("%w: phase %d has no title", ErrMalformedResponse, i+1)
		}
		phase.SequenceIndex = i
		plan.Phases = append(plan.Phases, phase)
	}

	if len(plan.Phases) == 0 {
		return RoadmapPlan{}, fmt.Errorf("%w: roadmap has no phases", ErrMalformedResponse)
	}
	return plan, nil
}

// ParseCritique parses defenced model output into a ResumeCritique. Scores
// outside [0,100] are clamped rather than rejected. Text that is not JSON is
// read as the line format "Score: N" followed by "... Improvements:" headings.
func ParseCritique(text string) (ResumeCritique, error) {
	doc, ok := jsonDocument(text)
	if !ok {
		return parseCritiqueLines(text)
	}
	if !doc.IsObject() {
		return ResumeCritique{}, fmt.Errorf("%w: critique must be an object", ErrMalformedResponse)
	}

	score, err := coerceScore(firstField(doc, "score", "resumeScore", "resume_score", "overallScore", "overall_score"))
	if err != nil {
		return ResumeCritique{}, err
	}

	critique := ResumeCritique{
		Score:      score,
		Summary:    firstString(doc, "summary", "overview"),
		Strengths:  stringList(doc.Get("strengths")),
		Weaknesses: stringList(doc.Get("weaknesses")),
	}

	improvements := firstField(doc, "improvements", "suggestions")
	switch {
	case improvements.IsArray():
		for _, g := range improvements.Array() {
			if !g.IsObject() {
				continue
			}
			group := ImprovementGroup{
				Category: firstString(g, "category", "heading", "title", "name"),
				Items:    stringList(firstField(g, "items", "suggestions", "points")),
			}
			if group.Category != "" {
				critique.Improvements = append(critique.Improvements, group)
			}
		}
	case improvements.IsObject():
		improvements.ForEach(func(key, value gjson.Result) bool {
			critique.Improvements = append(critique.Improvements, ImprovementGroup{
				Category: key.String(),
				Items:    stringList(value),
			})
			return true
		})
	}

	return critique, nil
}

var scoreLine = regexp.MustCompile(`(?i)score\s*:\s*(-?\d+(?:\.\d+)?)`)

func parseCritiqueLines(text string) (ResumeCritique, error) {
	m := scoreLine.FindStringSubmatch(text)
	if m == nil {
		return ResumeCritique{}, fmt.Errorf("%w: critique has no score", ErrMalformedResponse)
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return ResumeCritique{}, fmt.Errorf("%w: invalid score %q", ErrMalformedResponse, m[1])
	}

	score, err := scoreFromFloat(f)
	if err != nil {
		return ResumeCritique{}, err
	}

	critique := ResumeCritique{
		Score:      score,
		Strengths:  []string{},
		Weaknesses: []string{},
	}

	current := -1
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasSuffix(trimmed, "Improvements:") && !isBullet(trimmed):
			critique.Improvements = append(critique.Improvements, ImprovementGroup{
				Category: strings.TrimSuffix(trimmed, ":"),
				Items:    []string{},
			})
			current = len(critique.Improvements) - 1
		case isBullet(trimmed) && current >= 0:
			point := strings.TrimSpace(trimmed[1:])
			if point != "" {
				critique.Improvements[current].Items = append(critique.Improvements[current].Items, point)
			}
		}
	}
	return critique, nil
}

func isBullet(s string) bool {
	return strings.HasPrefix(s, "-") || strings.HasPrefix(s, "*")
}

// ClampScore pins a critique score into [0,100]. Out-of-range scores are a
// model quirk, not a failure.
func ClampScore(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}

// scoreFromFloat clamps before converting so huge or infinite scores pin to
// the range ends instead of overflowing int.
func scoreFromFloat(f float64) (int, error) {
	if math.IsNaN(f) {
		return 0, fmt.Errorf("%w: score is not a number", ErrMalformedResponse)
	}
	return int(math.Round(math.Max(0, math.Min(100, f)))), nil
}

func coerceScore(r gjson.Result) (int, error) {
	switch r.Type {
	case gjson.Number:
		return scoreFromFloat(r.Float())
	case gjson.String:
		s := strings.TrimSpace(r.String())
		s = strings.TrimSuffix(s, "%")
		if i := strings.Index(s, "/"); i >= 0 {
			s = strings.TrimSpace(s[:i])
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("%w: score %q is not a number", ErrMalformedResponse, r.String())
		}
		return scoreFromFloat(f)
	default:
		return 0, fmt.Errorf("%w: critique has no score", ErrMalformedResponse)
	}
}

// jsonDocument parses text as JSON, falling back to the outermost object or
// array when the model wrapped it in prose.
func jsonDocument(text string) (gjson.Result, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return gjson.Result{}, false
	}
	if gjson.Valid(text) {
		return gjson.Parse(text), true
	}

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return gjson.Result{}, false
	}
	closer := "}"
	if text[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(text, closer)
	if end <= start {
		return gjson.Result{}, false
	}
	candidate := text[start : end+1]
	if !gjson.Valid(candidate) {
		return gjson.Result{}, false
	}
	return gjson.Parse(candidate), true
}

func firstField(obj gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if v := obj.Get(k); v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}

func firstString(obj gjson.Result, keys ...string) string {
	for _, k := range keys {
		v := obj.Get(k)
		if v.Type == gjson.String || v.Type == gjson.Number {
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}

// stringList reads a list of strings. A single string is split on commas.
// The result is never nil.
func stringList(r gjson.Result) []string {
	out := []string{}
	switch {
	case r.IsArray():
		for _, item := range r.Array() {
			if item.Type != gjson.String && item.Type != gjson.Number {
				continue
			}
			if s := strings.TrimSpace(item.String()); s != "" {
				out = append(out, s)
			}
		}
	case r.Type == gjson.String:
		for _, part := range strings.Split(r.String(), ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

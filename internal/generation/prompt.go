package generation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxResumeChars bounds how much extracted resume text is embedded in a
// critique prompt. Longer documents are cut to their first MaxResumeChars runes.
const MaxResumeChars = 12000

// ImprovementCategories are the headings a critique groups its suggestions under.
var ImprovementCategories = []string{
	"Content Improvements",
	"Skills Improvements",
	"Experience Improvements",
	"Project Improvements",
	"ATS / Formatting Improvements",
}

// Prompt is what gets sent to the model for one turn. History is only set for
// free chat; structured requests are stateless.
type Prompt struct {
	Intent  Intent
	Text    string
	History []Turn
}

// BuildPrompt returns the instruction text for the given intent. For
// ResumeCritiqueRequest the input is the extracted resume text.
func BuildPrompt(intent Intent, input string, prior []Turn) (Prompt, error) {
	if strings.TrimSpace(input) == "" {
		return Prompt{}, ErrEmptyInput
	}

	switch intent {
	case RoadmapRequest:
		return Prompt{Intent: intent, Text: roadmapPrompt(strings.TrimSpace(input))}, nil
	case ResumeCritiqueRequest:
		return Prompt{Intent: intent, Text: critiquePrompt(TruncateResume(input))}, nil
	default:
		history := make([]Turn, len(prior))
		copy(history, prior)
		return Prompt{Intent: FreeChat, Text: input, History: history}, nil
	}
}

// TruncateResume keeps the first MaxResumeChars runes of text.
func TruncateResume(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= MaxResumeChars {
		return text
	}
	runes := []rune(text)
	return string(runes[:MaxResumeChars])
}

func roadmapPrompt(goal string) string {
	return fmt.Sprintf(`You are an expert career mentor who designs learning roadmaps.

Create a detailed, step-by-step career roadmap for this goal:
"""
%s
"""

Rules:
- Break the roadmap into 5 to 7 distinct phases, ordered from beginner to advanced.
- If the goal mentions specific technologies, tools or keywords for the role, each of them MUST appear as an explicit phase or topic.
- Keep every description short and practical.

Return ONLY a single raw JSON object in exactly this format:

{
  "roleTitle": string,
  "overview": string,
  "phases": [
    {
      "title": string,
      "estimatedDuration": string,
      "description": string,
      "topics": [string],
      "milestoneProject": string
    }
  ]
}

Do not wrap the JSON in markdown code fences.
Do not include explanations or any text before or after the JSON.`, goal)
}

func critiquePrompt(resume string) string {
	return fmt.Sprintf(`You are a professional ATS resume evaluator and career advisor.

Analyze the resume below and return:
- An overall resume score from 0 to 100.
- A short summary of the candidate profile.
- The main strengths and weaknesses.
- Improvements grouped under EXACTLY these categories: %s.

Rules:
- Suggestions MUST be strictly based on this resume.
- Do NOT give generic advice.
- Be concise and professional.

Resume:
"""
%s
"""

Return ONLY a single raw JSON object in exactly this format:

{
  "score": number,
  "summary": string,
  "strengths": [string],
  "weaknesses": [string],
  "improvements": [
    {"category": string, "items": [string]}
  ]
}

Do not wrap the JSON in markdown code fences.
Do not include explanations or any text before or after the JSON.`, strings.Join(ImprovementCategories, ", "), resume)
}

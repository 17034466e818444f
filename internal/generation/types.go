// Package generation builds model prompts for chat, roadmap and resume requests
// and turns raw model output back into structured results.
package generation

import (
	"time"
)

type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Turn is one message of a conversation. Turns are values; a conversation only
// ever appends them.
type Turn struct {
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type Intent int

const (
	FreeChat Intent = iota
	RoadmapRequest
	ResumeCritiqueRequest
)

func (i Intent) String() string {
	switch i {
	case RoadmapRequest:
		return "roadmap"
	case ResumeCritiqueRequest:
		return "resume_critique"
	default:
		return "chat"
	}
}

// Mode is the explicit selection made by the client (the active tab).
type Mode string

const (
	ModeNone    Mode = ""
	ModeChat    Mode = "chat"
	ModeRoadmap Mode = "roadmap"
	ModeResume  Mode = "resume"
)

type Phase struct {
	Title             string   `json:"title"`
	EstimatedDuration string   `json:"estimatedDuration,omitempty"`
	Description       string   `json:"description,omitempty"`
	Topics            []string `json:"topics"`
	MilestoneProject  string   `json:"milestoneProject,omitempty"`
	SequenceIndex     int      `json:"sequenceIndex"`
}

type RoadmapPlan struct {
	RoleTitle string  `json:"roleTitle"`
	Overview  string  `json:"overview,omitempty"`
	Phases    []Phase `json:"phases"`
}

type ImprovementGroup struct {
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

type ResumeCritique struct {
	Score        int                `json:"score"`
	Summary      string             `json:"summary"`
	Strengths    []string           `json:"strengths"`
	Weaknesses   []string           `json:"weaknesses"`
	Improvements []ImprovementGroup `json:"improvements,omitempty"`
}

type ResultKind string

const (
	KindStructured ResultKind = "structured"
	KindPlainText  ResultKind = "plain_text"
	KindFailure    ResultKind = "failure"
)

// Result is the outcome of interpreting one model response. Exactly one of
// Roadmap, Critique or Text is meaningful, depending on Kind and the intent.
type Result struct {
	Kind      ResultKind      `json:"kind"`
	Roadmap   *RoadmapPlan    `json:"roadmap,omitempty"`
	Critique  *ResumeCritique `json:"critique,omitempty"`
	Text      string          `json:"text,omitempty"`
	ErrorKind ErrorKind       `json:"error_kind,omitempty"`
	Raw       string          `json:"raw,omitempty"`
}

func StructuredRoadmap(plan RoadmapPlan) Result {
	return Result{Kind: KindStructured, Roadmap: &plan}
}

func StructuredCritique(critique ResumeCritique) Result {
	return Result{Kind: KindStructured, Critique: &critique}
}

func PlainText(text string) Result {
	return Result{Kind: KindPlainText, Text: text}
}

func Failure(kind ErrorKind, raw string) Result {
	return Result{Kind: KindFailure, ErrorKind: kind, Raw: raw}
}

func (p RoadmapPlan) Clone() RoadmapPlan {
	out := p
	out.Phases = make([]Phase, len(p.Phases))
	for i, ph := range p.Phases {
		ph.Topics = append([]string{}, ph.Topics...)
		out.Phases[i] = ph
	}
	return out
}

func (c ResumeCritique) Clone() ResumeCritique {
	out := c
	out.Strengths = append([]string{}, c.Strengths...)
	out.Weaknesses = append([]string{}, c.Weaknesses...)
	if c.Improvements != nil {
		out.Improvements = make([]ImprovementGroup, len(c.Improvements))
		for i, g := range c.Improvements {
			g.Items = append([]string{}, g.Items...)
			out.Improvements[i] = g
		}
	}
	return out
}

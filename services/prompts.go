package services

import (
	"fmt"
	"strings"

	"github.com/anjiri1684/english_practice/models"
)

// KindSpec holds what differs between the conversation variants.
type KindSpec struct {
	Kind             models.SessionKind
	Path             string
	Title            string
	Closing          string
	RequiresPosition bool
}

var Kinds = map[models.SessionKind]KindSpec{
	models.KindDailyTalk: {
		Kind:    models.KindDailyTalk,
		Path:    "daily-talk",
		Title:   "Daily Talk",
		Closing: "Our time is up for today. Thank you for the lovely chat! Let's look at how you did.",
	},
	models.KindDebate: {
		Kind:             models.KindDebate,
		Path:             "debate",
		Title:            "Debate",
		Closing:          "Time is up! That was a strong debate. Let's review your arguments.",
		RequiresPosition: true,
	},
	models.KindStoryTelling: {
		Kind:    models.KindStoryTelling,
		Path:    "storytelling",
		Title:   "Storytelling",
		Closing: "And that is where our story ends for now. Well done! Let's see your results.",
	},
}

// ResultPath is where the client is sent once a session can no longer take turns.
func ResultPath(s *models.Session) string {
	return fmt.Sprintf("/%s/%s/result", Kinds[s.Kind].Path, s.ID)
}

func levelOr(s *models.Session, def string) string {
	if s.Level != nil && *s.Level != "" {
		return *s.Level
	}
	return def
}

func SystemPrompt(s *models.Session) string {
	var b strings.Builder
	switch s.Kind {
	case models.KindDebate:
		side, opposite := "pro", "contra"
		if s.Position != nil && *s.Position == "contra" {
			side, opposite = "contra", "pro"
		}
		fmt.Fprintf(&b, "You are a debate opponent helping an English learner practise argumentation.\n")
		fmt.Fprintf(&b, "Motion: %q.\n", s.Theme)
		fmt.Fprintf(&b, "The learner argues %s, you argue %s.\n", side, opposite)
		fmt.Fprintf(&b, "Learner level: %s. Answer each argument with one counter-argument and one short question, under 80 words.\n", levelOr(s, "intermediate"))
	case models.KindStoryTelling:
		fmt.Fprintf(&b, "You are co-writing a story in English with a learner.\n")
		fmt.Fprintf(&b, "Story theme: %q.\n", s.Theme)
		if s.Description != "" {
			fmt.Fprintf(&b, "Setting: %s\n", s.Description)
		}
		fmt.Fprintf(&b, "Continue the story with two or three vivid sentences, then ask the learner what happens next.\n")
	default:
		fmt.Fprintf(&b, "You are a friendly English conversation partner.\n")
		fmt.Fprintf(&b, "Topic: %q.\n", s.Theme)
		if s.Description != "" {
			fmt.Fprintf(&b, "Context: %s\n", s.Description)
		}
		fmt.Fprintf(&b, "Ask one question at a time and keep each reply under 60 words.\n")
	}
	b.WriteString("Do not correct the learner during the conversation. Never switch language.")
	return b.String()
}

// QA is one question the learner was asked and the answer they gave.
type QA struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
}

// PairsFromHistory pairs every assistant turn with the learner turn that follows it.
func PairsFromHistory(turns []models.Turn) []QA {
	var pairs []QA
	for i := 0; i < len(turns)-1; i++ {
		if turns[i].Role != models.RoleAssistant || turns[i+1].Role != models.RoleLearner {
			continue
		}
		pairs = append(pairs, QA{Question: turns[i].Text, Answer: turns[i+1].Text})
		i++
	}
	return pairs
}

func GradingPrompt(s *models.Session, pairs []QA) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an English teacher grading a %s session on %q.\n", Kinds[s.Kind].Title, s.Theme)
	b.WriteString("For every numbered answer below give a mark from 0 to 100 for grammar, vocabulary and relevance,\n")
	b.WriteString("an improved version of the answer as suggestion, and a one-sentence reason.\n")
	b.WriteString("Also give one overall suggestion for the learner.\n\n")
	for i, p := range pairs {
		fmt.Fprintf(&b, "%d. Question: %s\n   Answer: %s\n", i+1, p.Question, p.Answer)
	}
	fmt.Fprintf(&b, "\nReply only with JSON of the form "+
		`{"results":[{"mark":0,"suggestion":"","reason":""}],"suggestion":""}`+
		" with exactly %d results in the same order.", len(pairs))
	return b.String()
}

func EssayTopicPrompt(level string) string {
	if level == "" {
		level = "intermediate"
	}
	return fmt.Sprintf("Suggest one essay topic for an %s English learner. Reply with the topic only, in one sentence.", level)
}

func EssayGradingPrompt(topic, content string) string {
	return fmt.Sprintf("You are an English teacher. Grade the essay below written on the topic %q.\n"+
		"Give a score from 0 to 100, short feedback, and the corrected sentences.\n"+
		`Reply only with JSON of the form {"score":0,"feedback":"","corrections":""}.`+
		"\n\nEssay:\n%s", topic, content)
}

func IllustrationPrompt(s *models.Session) string {
	return fmt.Sprintf("A warm, colourful storybook illustration for a story about %q. %s No text in the image.",
		s.Theme, s.Description)
}

package main

// Exercise the analysis prompts against the live provider without running
// the server:
//   go run ./cmd/prompttest -answers testdata/answers.json -deep -out out.json

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"blanknote-backend/internal/funnel"
	"blanknote-backend/internal/llm/openai"
	"blanknote-backend/internal/results"
	"blanknote-backend/internal/session"
	"blanknote-backend/internal/shared/config"
)

// answersFile is the prompttest input shape. Entries pair by position with
// the intro questions and the sampled deep questions.
type answersFile struct {
	Intro []string `json:"intro"`
	Deep  []string `json:"deep"`
}

func main() {
	cfg := config.Load()

	answersPath := flag.String("answers", "", "Path to answers JSON ({\"intro\":[...5],\"deep\":[...7]})")
	runDeep := flag.Bool("deep", false, "Also run the deep analysis")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Seed for the deep question sample")
	model := flag.String("model", cfg.LLMModel, "Chat model")
	outPath := flag.String("out", "", "Path to write raw JSON output (optional)")
	flag.Parse()

	if strings.TrimSpace(*answersPath) == "" {
		exitErr("answers path is required")
	}
	raw, err := os.ReadFile(*answersPath)
	if err != nil {
		exitErr(fmt.Sprintf("read answers: %v", err))
	}
	var input answersFile
	if err := json.Unmarshal(raw, &input); err != nil {
		exitErr(fmt.Sprintf("parse answers: %v", err))
	}

	client, err := openai.NewClient(cfg.OpenAIAPIKey, *model)
	if err != nil {
		exitErr(err.Error())
	}

	state := session.New(funnel.IntroQuestions, funnel.DeepQuestionPool, rand.New(rand.NewSource(*seed)))
	fillPhase(state, input.Intro)
	introAnswers := recordAnswers(state)

	ctx := context.Background()
	intro, err := client.AnalyzeIntro(ctx, introAnswers)
	if err != nil {
		exitErr(fmt.Sprintf("intro analysis: %v", err))
	}

	output := map[string]any{"intro": intro}

	if *runDeep {
		state.CompleteIntro("prompttest")
		state.StartDeepPhase()
		fillPhase(state, input.Deep)
		deepAnswers := recordAnswers(state)

		full, err := client.AnalyzeDeep(ctx, introAnswers, deepAnswers)
		if err != nil {
			exitErr(fmt.Sprintf("deep analysis: %v", err))
		}
		output["deep"] = full
	}

	rendered, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		exitErr(fmt.Sprintf("render output: %v", err))
	}
	fmt.Println(string(rendered))

	if strings.TrimSpace(*outPath) != "" {
		if err := os.WriteFile(*outPath, rendered, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}
}

// fillPhase pairs the provided texts with the state's current questions.
func fillPhase(state *session.ClientFunnelState, texts []string) {
	if len(texts) != len(state.Questions) {
		exitErr(fmt.Sprintf("need %d answers for the %s phase, got %d",
			len(state.Questions), state.Phase, len(texts)))
	}
	for i, q := range state.Questions {
		state.SetAnswer(q.ID, texts[i])
	}
	if !state.CanSubmit() {
		exitErr(fmt.Sprintf("%s answers would fail validation (min %d chars each)",
			state.Phase, funnel.MinAnswerLength))
	}
}

func recordAnswers(state *session.ClientFunnelState) []results.Answer {
	answers := make([]results.Answer, 0, len(state.Questions))
	for _, q := range state.Questions {
		answers = append(answers, results.Answer{QuestionID: q.ID, Prompt: q.Prompt, Answer: state.Answers[q.ID]})
	}
	return answers
}

func exitErr(msg string) {
	fmt.Fprintln(os.Stderr, "error: "+msg)
	os.Exit(1)
}

// Command genmcq drafts multiple-choice questions with an LLM and appends the
// accepted ones to the MCQ seed file.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf-coach/studycoach/internal/generator"
)

func main() {
	var (
		topic    = flag.String("topic", "", "topic name the questions belong to (required)")
		count    = flag.Int("count", 5, "number of questions to request")
		source   = flag.String("source", "", "optional text file with source material")
		out      = flag.String("out", "internal/database/seeds/mcq.json", "seed file to append to")
		validate = flag.Bool("validate", true, "have a second model answer each question blind")
		dryRun   = flag.Bool("dry-run", false, "print the accepted questions without writing")
		timeout  = flag.Duration("timeout", 5*time.Minute, "overall deadline")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("[genmcq] no .env file loaded: %v", err)
	}

	if *topic == "" {
		flag.Usage()
		os.Exit(2)
	}

	var sourceText string
	if *source != "" {
		data, err := os.ReadFile(*source)
		if err != nil {
			log.Fatalf("[genmcq] read source: %v", err)
		}
		sourceText = string(data)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, *timeout)
	defer cancelTimeout()

	gen := generator.NewGenerator()
	batch, resp, err := gen.GenerateMCQBatch(ctx, *topic, *count, sourceText)
	if err != nil {
		log.Fatalf("[genmcq] %v", err)
	}
	log.Printf("[genmcq] model=%s generated %d questions (tokens in=%d out=%d)",
		gen.ModelName(), len(batch.Questions), resp.PromptTokens, resp.OutputTokens)

	var results []generator.ValidationResult
	if v := generator.NewValidator(); *validate && v.Enabled() {
		vres, err := v.ValidateBatch(ctx, batch)
		if err != nil {
			log.Fatalf("[genmcq] validate: %v", err)
		}
		results = vres.Results
		log.Printf("[genmcq] validator=%s passed=%d flagged=%d rejected=%d",
			v.ModelName(), vres.PassedCount, vres.FlaggedCount, vres.RejectedCount)
	}

	accepted := make([]generator.GeneratedMCQ, 0, len(batch.Questions))
	for i, q := range batch.Questions {
		var vr *generator.ValidationResult
		if i < len(results) {
			vr = &results[i]
		}
		score := generator.ComputeQualityScore(vr, generator.ComputeStructuralScore(q))
		switch generator.ClassifyQuality(score) {
		case "reject":
			log.Printf("[genmcq] rejected %d (%.2f): %s", i+1, score, q.Stem)
			continue
		case "flagged":
			log.Printf("[genmcq] WARN: flagged %d (%.2f): %s", i+1, score, q.Stem)
		}
		accepted = append(accepted, q)
	}

	if *dryRun {
		for i, q := range accepted {
			log.Printf("[genmcq] %d. %s -> %s", i+1, q.Stem, q.Choices[q.AnswerIdx])
		}
		return
	}

	added, err := generator.AppendToSeedFile(*out, accepted)
	if err != nil {
		log.Fatalf("[genmcq] %v", err)
	}
	log.Printf("[genmcq] appended %d of %d accepted questions to %s", added, len(accepted), *out)
}

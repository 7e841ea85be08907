package database

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf-coach/studycoach/internal/models"
)

//go:embed seeds/*.json
var seedFS embed.FS

type seedTopic struct {
	Name string `json:"name"`
}

type seedMCQ struct {
	Stem        string   `json:"stem"`
	Choices     []string `json:"choices"`
	AnswerIdx   int      `json:"answer_idx"`
	Explanation string   `json:"explanation"`
	TopicName   string   `json:"topic_name"`
	SourceRef   string   `json:"source_ref"`
}

type seedSAQ struct {
	Prompt       string   `json:"prompt"`
	ModelOutline string   `json:"model_outline"`
	Keywords     []string `json:"keywords"`
	StatuteRefs  []string `json:"statute_refs"`
	TopicName    string   `json:"topic_name"`
	SourceRef    string   `json:"source_ref"`
}

type seedFlashcard struct {
	Front     string `json:"front"`
	Back      string `json:"back"`
	TopicName string `json:"topic_name"`
	SourceRef string `json:"source_ref"`
}

// SeedCounts reports how many rows a seed run inserted.
type SeedCounts struct {
	Topics     int
	MCQ        int
	SAQ        int
	Flashcards int
}

// Seed loads the embedded item bank when the topics table is empty. The whole
// load runs in one transaction; a bad MCQ aborts it.
func Seed(ctx context.Context, db *sql.DB) (*SeedCounts, error) {
	var existing int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM topics`).Scan(&existing); err != nil {
		return nil, fmt.Errorf("count topics: %w", err)
	}
	if existing > 0 {
		log.Printf("[seed] %d topics present, skipping seed", existing)
		return &SeedCounts{}, nil
	}

	var (
		topics []seedTopic
		mcqs   []seedMCQ
		saqs   []seedSAQ
		cards  []seedFlashcard
	)
	for name, dst := range map[string]any{
		"seeds/topics.json":     &topics,
		"seeds/mcq.json":        &mcqs,
		"seeds/saq.json":        &saqs,
		"seeds/flashcards.json": &cards,
	} {
		if err := readSeed(name, dst); err != nil {
			return nil, err
		}
	}

	for i, q := range mcqs {
		m := models.MCQ{Stem: q.Stem, Choices: q.Choices, AnswerIdx: q.AnswerIdx}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("seed mcq %d: %w", i, err)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	counts := &SeedCounts{}
	topicIDs := make(map[string]int64)

	resolve := func(name string) (int64, error) {
		if id, ok := topicIDs[name]; ok {
			return id, nil
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO topics (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
		if err != nil {
			return 0, fmt.Errorf("insert topic %q: %w", name, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			counts.Topics++
		}
		var id int64
		if err := tx.QueryRowContext(ctx, `SELECT id FROM topics WHERE name = $1`, name).Scan(&id); err != nil {
			return 0, fmt.Errorf("lookup topic %q: %w", name, err)
		}
		topicIDs[name] = id
		return id, nil
	}

	for _, t := range topics {
		if _, err := resolve(t.Name); err != nil {
			return nil, err
		}
	}

	for _, q := range mcqs {
		topicID, err := resolve(q.TopicName)
		if err != nil {
			return nil, err
		}
		choices, _ := json.Marshal(q.Choices)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO mcq (stem, choices_json, answer_idx, explanation, topic_id, source_ref)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			q.Stem, string(choices), q.AnswerIdx, q.Explanation, topicID, q.SourceRef,
		); err != nil {
			return nil, fmt.Errorf("insert mcq: %w", err)
		}
		counts.MCQ++
	}

	for _, q := range saqs {
		topicID, err := resolve(q.TopicName)
		if err != nil {
			return nil, err
		}
		if q.StatuteRefs == nil {
			q.StatuteRefs = []string{}
		}
		keywords, _ := json.Marshal(q.Keywords)
		refs, _ := json.Marshal(q.StatuteRefs)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO saq (prompt, model_outline, keywords_json, statute_refs_json, topic_id, source_ref)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			q.Prompt, q.ModelOutline, string(keywords), string(refs), topicID, q.SourceRef,
		); err != nil {
			return nil, fmt.Errorf("insert saq: %w", err)
		}
		counts.SAQ++
	}

	for _, c := range cards {
		topicID, err := resolve(c.TopicName)
		if err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO flashcards (front, back, topic_id, source_ref) VALUES ($1, $2, $3, $4)`,
			c.Front, c.Back, topicID, c.SourceRef,
		); err != nil {
			return nil, fmt.Errorf("insert flashcard: %w", err)
		}
		counts.Flashcards++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit seed: %w", err)
	}

	log.Printf("[seed] loaded %d topics, %d mcq, %d saq, %d flashcards",
		counts.Topics, counts.MCQ, counts.SAQ, counts.Flashcards)
	return counts, nil
}

func readSeed(name string, dst any) error {
	data, err := seedFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

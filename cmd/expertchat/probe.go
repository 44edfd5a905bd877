package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"expertchat/internal/catalog"
	"expertchat/internal/chat"
	"expertchat/internal/common/fsutil"
	"expertchat/internal/manager"
	"expertchat/pkg/types"
)

// probeMaxTokens keeps probe answers short.
const probeMaxTokens = 300

// defaultQuestions are asked when no question file is given.
var defaultQuestions = map[string][]string{
	"astrology":   {"What are the traits of the Aries sign?", "What does it mean to have Venus in Taurus?"},
	"biology":     {"What is photosynthesis?", "How does DNA work?"},
	"cooking":     {"How do you make carbonara?", "Give me a quick dinner recipe."},
	"history":     {"Who was Julius Caesar?", "When did the Second World War start?"},
	"programming": {"How do you define a function in Python?", "What is a for loop?"},
	"base":        {"Hi, how are you?", "Tell me a short story."},
}

const fallbackQuestion = "Introduce yourself in one sentence."

func newProbeCmd(opts *rootOptions) *cobra.Command {
	var questionsFile string
	cmd := &cobra.Command{
		Use:   "probe [expert ids...]",
		Short: "Load each expert in turn and ask it sample questions",
		Long: "probe loads every enabled expert (or the ids given) through the same\n" +
			"single-slot cache the server uses and prints the answers to a few\n" +
			"questions. It exits non-zero when any expert fails.",
		Example: "  expertchat probe\n  expertchat probe cooking history --questions questions.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts, os.LookupEnv)
			if err != nil {
				return err
			}
			questions := defaultQuestions
			if questionsFile != "" {
				if questions, err = loadQuestions(questionsFile); err != nil {
					return err
				}
			}
			log := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
			rt, err := newRuntime(cfg, log)
			if err != nil {
				return err
			}
			pub := manager.NewMemoryPublisher()
			st, err := buildStack(cfg, rt, log, pub)
			if err != nil {
				return err
			}
			defer st.mgr.Close()
			failed := runProbe(cmd.Context(), cmd.OutOrStdout(), st, pub, cfg.ModelsDir, args, questions)
			if len(failed) > 0 {
				return fmt.Errorf("%d expert(s) failed: %s", len(failed), strings.Join(failed, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&questionsFile, "questions", "q", "", "YAML file mapping expert id to a list of questions")
	return cmd
}

// loadQuestions reads a YAML map of expert id to questions.
func loadQuestions(path string) (map[string][]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var q map[string][]string
	if err := yaml.Unmarshal(b, &q); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return q, nil
}

// runProbe asks every selected expert its questions and returns the ids that failed.
// With no ids, every enabled expert is probed; experts with a missing adapter fail
// without a load attempt.
// Load times are read from pub when it is non-nil.
func runProbe(ctx context.Context, w io.Writer, st *stack, pub *manager.MemoryPublisher, modelsDir string, ids []string, questions map[string][]string) []string {
	if ctx == nil {
		ctx = context.Background()
	}
	cat := st.store.Snapshot()
	var targets []types.Expert
	if len(ids) == 0 {
		for _, e := range cat.Experts {
			if !e.Enabled {
				fmt.Fprintf(w, "skip %s (disabled)\n", e.ID)
				continue
			}
			targets = append(targets, e)
		}
	} else {
		for _, id := range ids {
			e, ok := cat.Lookup(id)
			if !ok {
				e = types.Expert{ID: id, Name: id}
			}
			targets = append(targets, e)
		}
	}

	var failed []string
	for _, e := range targets {
		fmt.Fprintf(w, "== %s (%s)\n", e.ID, e.Name)
		if e.HasAdapter() {
			if p := catalog.ResolvePath(modelsDir, e.AdapterPath); !fsutil.PathExists(p) {
				fmt.Fprintf(w, "   adapter not found: %s\n\n", p)
				failed = append(failed, e.ID)
				continue
			}
		}
		if !probeExpert(ctx, w, st.svc, e.ID, questionsFor(questions, e.ID)) {
			failed = append(failed, e.ID)
			continue
		}
		if ms, ok := lastLoadMillis(pub, e.ID); ok {
			fmt.Fprintf(w, "   loaded in %dms\n\n", ms)
		}
	}

	fmt.Fprintf(w, "%d/%d experts passed\n", len(targets)-len(failed), len(targets))
	return failed
}

func lastLoadMillis(pub *manager.MemoryPublisher, id string) (int64, bool) {
	if pub == nil {
		return 0, false
	}
	events := pub.Events()
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		if ev.ExpertID == id && ev.Name == manager.EventLoadDone {
			ms, ok := ev.Fields["elapsed_ms"].(int64)
			return ms, ok
		}
	}
	return 0, false
}

func questionsFor(q map[string][]string, id string) []string {
	if qs := q[id]; len(qs) > 0 {
		return qs
	}
	return []string{fallbackQuestion}
}

func probeExpert(ctx context.Context, w io.Writer, svc *chat.Service, id string, qs []string) bool {
	for i, q := range qs {
		resp, err := svc.Chat(ctx, types.ChatRequest{Message: q, ModelID: id, MaxTokens: probeMaxTokens})
		if err != nil {
			fmt.Fprintf(w, "   error: %v\n\n", err)
			return false
		}
		fmt.Fprintf(w, "Q%d: %s\n%s\n\n", i+1, q, resp.Response)
	}
	return true
}


package analysis

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"aipm/internal/articulation"
	"aipm/internal/rules"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doc = "<h1>Title</h1><h2>Abstract</h2><p>Short abstract.</p>"

func makeRules(n int) []rules.Rule {
	rs := make([]rules.Rule, n)
	for i := range rs {
		rs[i] = rules.MustNew(fmt.Sprintf("rule-%02d", i), fmt.Sprintf("instruction %d", i))
	}
	return rs
}

func TestAnalyzeRules_ConcreteScenario(t *testing.T) {
	client := newFakeClient(map[string]reply{
		"A": {text: "```json\n{\"decision\":true,\"justification\":\"ok\"}\n```"},
		"B": {err: errBoom},
	})
	a := New(client)

	report, err := a.AnalyzeRules(context.Background(), doc, []rules.Rule{
		rules.MustNew("A", "..."),
		rules.MustNew("B", "..."),
	})
	require.NoError(t, err)

	want := Report{
		"A": {RuleName: "A", Decision: true, Justification: "ok"},
		"B": {RuleName: "B", Decision: false, Justification: "Error analyzing rule: fake: status 503: service unavailable"},
	}
	if diff := cmp.Diff(want, report); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluateRule_UnparseableResponse(t *testing.T) {
	client := newFakeClient(map[string]reply{"A": {text: "I think yes"}})
	a := New(client)

	v := a.EvaluateRule(context.Background(), rules.MustNew("A", "..."), doc)
	assert.Equal(t, Verdict{RuleName: "A", Decision: false, Justification: "Failed to parse AI response: I think yes"}, v)
	assert.Equal(t, int64(1), a.InterpreterStats().ParseFailures)
}

func TestWithInterpreter_SharesStats(t *testing.T) {
	client := newFakeClient(map[string]reply{
		"A": {text: `{"decision": true, "justification": "ok"}`},
		"B": {text: "Example:\n```\nx = 1\n```\n```json\n{\"decision\": false}\n```"},
		"C": {text: "no verdict here"},
	})
	shared := articulation.NewInterpreter()

	first := New(client, WithInterpreter(shared))
	second := New(client, WithInterpreter(shared), WithParallelThreads(1))
	_, err := first.AnalyzeRules(context.Background(), doc, []rules.Rule{rules.MustNew("A", "..."), rules.MustNew("B", "...")})
	require.NoError(t, err)
	report, err := second.AnalyzeRules(context.Background(), doc, []rules.Rule{rules.MustNew("B", "..."), rules.MustNew("C", "...")})
	require.NoError(t, err)

	assert.Equal(t, "No justification provided", report["B"].Justification)
	assert.Equal(t, articulation.InterpreterStats{
		TotalProcessed: 4,
		DirectParses:   1,
		FencedParses:   2,
		ParseFailures:  1,
	}, shared.Stats())
	assert.Equal(t, shared.Stats(), first.InterpreterStats())

	assert.NotPanics(t, func() { New(client, WithInterpreter(nil)).InterpreterStats() })
}

func TestEvaluateRule_RecoversClientPanic(t *testing.T) {
	client := newFakeClient(map[string]reply{"A": {panic: "nil map write"}})
	a := New(client)

	v := a.EvaluateRule(context.Background(), rules.MustNew("A", "..."), doc)
	assert.False(t, v.Decision)
	assert.Equal(t, "Error analyzing rule: completion client panicked: nil map write", v.Justification)
}

func TestEvaluateRule_NilClient(t *testing.T) {
	v := New(nil).EvaluateRule(context.Background(), rules.MustNew("A", "..."), doc)
	assert.False(t, v.Decision)
	assert.True(t, strings.HasPrefix(v.Justification, "Error analyzing rule: "))
}

func TestEvaluateRule_PromptAndSystemMessage(t *testing.T) {
	client := newFakeClient(nil)
	a := New(client)

	rule := rules.MustNew("Abstract Length", "The abstract must be 150-250 words.")
	a.EvaluateRule(context.Background(), rule, doc)

	require.Equal(t, []string{DefaultSystemPrompt}, client.systems)
	prompt := client.prompts["Abstract Length"]
	assert.Contains(t, prompt, doc)
	assert.Contains(t, prompt, "The abstract must be 150-250 words.")
	assert.Contains(t, prompt, `"decision"`)
	assert.Contains(t, prompt, `"justification"`)

	custom := newFakeClient(nil)
	New(custom, WithSystemPrompt("Be terse.")).EvaluateRule(context.Background(), rule, doc)
	assert.Equal(t, []string{"Be terse."}, custom.systems)
}

func TestAnalyzeRules_Completeness(t *testing.T) {
	// Mixed behaviour: success, fenced, malformed, transport failure, panic.
	behaviours := []reply{
		{text: `{"decision": true, "justification": "fine"}`},
		{text: "```json\n{\"decision\": false, \"justification\": \"no\"}\n```"},
		{text: "not json at all"},
		{err: errBoom},
		{panic: "boom"},
		{text: `{"decision": "yes"}`},
	}

	for _, n := range []int{0, 1, 5, 8, 9, 23} {
		for _, threads := range []int{1, 3, 8} {
			t.Run(fmt.Sprintf("n=%d/threads=%d", n, threads), func(t *testing.T) {
				rs := makeRules(n)
				replies := make(map[string]reply, n)
				for i, r := range rs {
					replies[r.Name()] = behaviours[i%len(behaviours)]
				}

				report, err := New(newFakeClient(replies), WithParallelThreads(threads)).
					AnalyzeRules(context.Background(), doc, rs)
				require.NoError(t, err)
				require.Len(t, report, n)
				for _, r := range rs {
					v, ok := report[r.Name()]
					require.True(t, ok, "missing verdict for %s", r.Name())
					assert.Equal(t, r.Name(), v.RuleName)
					assert.NotEmpty(t, v.Justification)
				}
			})
		}
	}
}

func TestAnalyzeRules_FailSoftIsolation(t *testing.T) {
	rs := makeRules(7)
	healthy := make(map[string]reply, len(rs))
	for i, r := range rs {
		healthy[r.Name()] = reply{text: fmt.Sprintf(`{"decision": %t, "justification": "j%d"}`, i%2 == 0, i)}
	}

	baseline, err := New(newFakeClient(healthy), WithParallelThreads(3)).AnalyzeRules(context.Background(), doc, rs)
	require.NoError(t, err)

	for _, victim := range rs {
		t.Run(victim.Name(), func(t *testing.T) {
			replies := make(map[string]reply, len(healthy))
			for k, v := range healthy {
				replies[k] = v
			}
			replies[victim.Name()] = reply{err: errBoom}

			report, err := New(newFakeClient(replies), WithParallelThreads(3)).AnalyzeRules(context.Background(), doc, rs)
			require.NoError(t, err)

			assert.False(t, report[victim.Name()].Decision)
			for _, r := range rs {
				if r.Name() == victim.Name() {
					continue
				}
				assert.Equal(t, baseline[r.Name()], report[r.Name()])
			}
		})
	}
}

func TestAnalyzeRules_ConcurrencyBound(t *testing.T) {
	for _, k := range []int{1, 2, 4, 8} {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			client := newFakeClient(nil)
			client.delay = 20 * time.Millisecond

			_, err := New(client, WithParallelThreads(k)).AnalyzeRules(context.Background(), doc, makeRules(13))
			require.NoError(t, err)

			assert.Equal(t, int64(13), client.calls.Load())
			assert.LessOrEqual(t, client.peak.Load(), int64(k))
			assert.GreaterOrEqual(t, client.peak.Load(), int64(1))
		})
	}
}

func TestAnalyzeRules_OrderIndependence(t *testing.T) {
	rs := makeRules(11)
	replies := make(map[string]reply, len(rs))
	for i, r := range rs {
		switch i % 3 {
		case 0:
			replies[r.Name()] = reply{text: fmt.Sprintf(`{"decision": true, "justification": "%s ok"}`, r.Name())}
		case 1:
			replies[r.Name()] = reply{err: errBoom}
		default:
			replies[r.Name()] = reply{text: "gibberish " + r.Name()}
		}
	}

	want, err := New(newFakeClient(replies), WithParallelThreads(4)).AnalyzeRules(context.Background(), doc, rs)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 5; trial++ {
		shuffled := append([]rules.Rule(nil), rs...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got, err := New(newFakeClient(replies), WithParallelThreads(4)).AnalyzeRules(context.Background(), doc, shuffled)
		require.NoError(t, err)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("trial %d: report changed under permutation (-want +got):\n%s", trial, diff)
		}
	}
}

func TestAnalyzeRules_ClampsParallelThreads(t *testing.T) {
	for _, n := range []int{0, -5} {
		a := New(newFakeClient(nil), WithParallelThreads(n))
		assert.Equal(t, 1, a.ParallelThreads())
	}
	assert.Equal(t, 8, New(newFakeClient(nil)).ParallelThreads())
}

func TestAnalyzeRules_InvalidInput(t *testing.T) {
	client := newFakeClient(nil)
	a := New(client)

	_, err := a.AnalyzeRules(context.Background(), "", makeRules(2))
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = a.AnalyzeRules(context.Background(), "  \n\t", makeRules(2))
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = a.AnalyzeRules(context.Background(), doc, []rules.Rule{rules.MustNew("ok", "x"), {}})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, rules.ErrInvalidRule)

	assert.Zero(t, client.calls.Load(), "no evaluation may start on invalid input")
}

func TestAnalyzeRules_EmptyRuleSet(t *testing.T) {
	report, err := New(newFakeClient(nil)).AnalyzeRules(context.Background(), doc, nil)
	require.NoError(t, err)
	assert.Empty(t, report)
}

func TestAnalyzeRules_DuplicateNamesOverwrite(t *testing.T) {
	rs := []rules.Rule{rules.MustNew("dup", "first"), rules.MustNew("dup", "second")}
	// Group size 1 makes the second evaluation strictly later.
	report, err := New(newFakeClient(nil), WithParallelThreads(1)).AnalyzeRules(context.Background(), doc, rs)
	require.NoError(t, err)
	assert.Len(t, report, 1)
}

func TestAnalyzeRules_CancelledContextStillComplete(t *testing.T) {
	client := newFakeClient(nil)
	client.delay = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := New(client, WithParallelThreads(2)).AnalyzeRules(ctx, doc, makeRules(5))
	require.NoError(t, err)
	require.Len(t, report, 5)
	for _, v := range report {
		assert.False(t, v.Decision)
		assert.Contains(t, v.Justification, "Error analyzing rule: ")
		assert.Contains(t, v.Justification, "context canceled")
	}
}

func TestAnalyzeRules_Progress(t *testing.T) {
	var got []Progress
	a := New(newFakeClient(nil), WithParallelThreads(4), WithProgress(func(p Progress) {
		got = append(got, p)
	}))

	_, err := a.AnalyzeRules(context.Background(), doc, makeRules(10))
	require.NoError(t, err)

	want := []Progress{
		{Done: 4, Total: 10, Group: 1, Groups: 3},
		{Done: 8, Total: 10, Group: 2, Groups: 3},
		{Done: 10, Total: 10, Group: 3, Groups: 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("progress mismatch (-want +got):\n%s", diff)
	}
}

// Group i+1 must not start before every call of group i has returned.
func TestAnalyzeRules_GroupBarrier(t *testing.T) {
	client := newFakeClient(nil)
	client.delay = 10 * time.Millisecond

	var snapshots []int64
	a := New(client, WithParallelThreads(3), WithProgress(func(p Progress) {
		snapshots = append(snapshots, client.inFlight.Load())
	}))

	_, err := a.AnalyzeRules(context.Background(), doc, makeRules(9))
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 0, 0}, snapshots)
}

package transcript_test

import (
	"testing"

	"github.com/taleforge/taleforge/internal/transcript"
)

type recordingSink struct {
	model []string
	user  []string
}

func (r *recordingSink) FinalizeModel(text string) { r.model = append(r.model, text) }
func (r *recordingSink) FinalizeUser(text string)  { r.user = append(r.user, text) }

func TestAccumulator_DeltasConcatenate(t *testing.T) {
	t.Parallel()
	acc := transcript.New()

	acc.AppendModel("Raven's ")
	acc.AppendModel("Hollow ")
	acc.AppendModel("awaits")
	acc.AppendUser("I enter")

	user, model := acc.Pending()
	if model != "Raven's Hollow awaits" {
		t.Errorf("model pending = %q", model)
	}
	if user != "I enter" {
		t.Errorf("user pending = %q", user)
	}
}

func TestFlush_FinalizesAndResets(t *testing.T) {
	t.Parallel()
	acc := transcript.New()
	sink := &recordingSink{}

	acc.AppendModel("Raven's Hollow awaits")
	acc.AppendUser("I enter the gates")
	acc.Flush(sink)

	if len(sink.model) != 1 || sink.model[0] != "Raven's Hollow awaits" {
		t.Errorf("model turns = %v", sink.model)
	}
	if len(sink.user) != 1 || sink.user[0] != "I enter the gates" {
		t.Errorf("user turns = %v", sink.user)
	}

	user, model := acc.Pending()
	if user != "" || model != "" {
		t.Errorf("buffers not reset: user=%q model=%q", user, model)
	}
}

func TestFlush_EmptyBuffersProduceNothing(t *testing.T) {
	t.Parallel()
	acc := transcript.New()
	sink := &recordingSink{}

	acc.Flush(sink)
	if len(sink.model) != 0 || len(sink.user) != 0 {
		t.Errorf("empty flush produced entries: %v / %v", sink.model, sink.user)
	}
}

func TestFlush_ModelOnlyTurn(t *testing.T) {
	t.Parallel()
	acc := transcript.New()
	sink := &recordingSink{}

	acc.AppendModel("The fog thickens.")
	acc.Flush(sink)

	if len(sink.model) != 1 || len(sink.user) != 0 {
		t.Errorf("model-only turn: model=%v user=%v", sink.model, sink.user)
	}
}

func TestReset_DropsWithoutFinalizing(t *testing.T) {
	t.Parallel()
	acc := transcript.New()
	sink := &recordingSink{}

	acc.AppendModel("half a sent")
	acc.Reset()
	acc.Flush(sink)

	if len(sink.model) != 0 {
		t.Errorf("reset text leaked into flush: %v", sink.model)
	}
}

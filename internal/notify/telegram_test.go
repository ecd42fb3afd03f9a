package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/drum/internal/features/admission"
)

type fakeSender struct {
	sent []*telego.SendMessageParams
	err  error
}

func (f *fakeSender) SendMessage(_ context.Context, params *telego.SendMessageParams) (*telego.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, params)
	return &telego.Message{}, nil
}

var rejection = admission.Rejection{
	Kind:     "thread",
	AuthorID: 42,
	Chamber:  "golang",
	Detail:   "Failed automoderation:\n- a: gtube scored 1.00 (threshold 0.50)",
	Text:     "buy now",
}

func TestTelegram_Notify(t *testing.T) {
	sender := &fakeSender{}
	n := &Telegram{sender: sender, chatID: -100}

	require.NoError(t, n.Notify(context.Background(), rejection))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(-100), sender.sent[0].ChatID.ID)
	assert.Contains(t, sender.sent[0].Text, "Палата: golang")
	assert.Contains(t, sender.sent[0].Text, "gtube scored 1.00")
	assert.Contains(t, sender.sent[0].Text, "Текст: buy now")
}

func TestTelegram_NotifyError(t *testing.T) {
	n := &Telegram{sender: &fakeSender{err: errors.New("blocked")}, chatID: 1}
	assert.Error(t, n.Notify(context.Background(), rejection))
}

func TestLog_Notify(t *testing.T) {
	assert.NoError(t, Log{}.Notify(context.Background(), rejection))
}

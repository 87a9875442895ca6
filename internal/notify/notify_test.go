package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type recorder struct {
	msgs []Message
	err  error
}

func (r *recorder) Notify(_ context.Context, msg Message) error {
	r.msgs = append(r.msgs, msg)
	return r.err
}

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	d.sent = append(d.sent, m...)
	return d.err
}

func TestMultiCollectsErrors(t *testing.T) {
	ok := &recorder{}
	bad := &recorder{err: errors.New("boom")}
	worse := &recorder{err: errors.New("bang")}

	err := Multi{ok, bad, nil, worse}.Notify(context.Background(), Message{UserID: 1, Title: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), "bang")
	assert.Len(t, ok.msgs, 1)
	assert.Len(t, bad.msgs, 1)
}

func TestMultiNoErrors(t *testing.T) {
	assert.NoError(t, Multi{&recorder{}, Nop{}}.Notify(context.Background(), Message{}))
}

func TestNotifyAllNamesUser(t *testing.T) {
	err := NotifyAll(context.Background(), &recorder{err: errors.New("down")},
		[]Message{{UserID: 7}, {UserID: 8}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user 7")
	assert.Contains(t, err.Error(), "user 8")
}

func TestMailerSkipsWithoutAddress(t *testing.T) {
	d := &fakeDialer{}
	m := NewMailerWithDialer("noreply@moamoa.kr", d)

	require.NoError(t, m.Notify(context.Background(), Message{Title: "t"}))
	assert.Empty(t, d.sent)

	require.NoError(t, m.Notify(context.Background(), Message{Email: "a@b.c", Title: "t", Body: "b"}))
	require.Len(t, d.sent, 1)
	assert.Equal(t, []string{"a@b.c"}, d.sent[0].GetHeader("To"))
}

func TestMailerWrapsDialError(t *testing.T) {
	m := NewMailerWithDialer("x@y.z", &fakeDialer{err: errors.New("smtp down")})
	err := m.Notify(context.Background(), Message{Email: "a@b.c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")
}

func TestNilMailerIsSilent(t *testing.T) {
	var m *Mailer
	assert.NoError(t, m.Notify(context.Background(), Message{Email: "a@b.c"}))
	assert.Nil(t, NewMailer(MailConfig{}))
}

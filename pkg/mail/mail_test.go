package mail

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/go-gomail/gomail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	f.sent = append(f.sent, m...)
	return f.err
}

type mockSES struct {
	mock.Mock
}

func (m *mockSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sesv2.SendEmailOutput), args.Error(1)
}

func attachment(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "123456789.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7"), 0o644))
	return path
}

func render(t *testing.T, m *gomail.Message) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestSMTPSender_Send(t *testing.T) {
	d := &fakeDialer{}
	s := &SMTPSender{from: From{Address: "office@example.org", Name: "Community Center"}, dialer: d}

	err := s.Send(context.Background(), &Message{
		To:          []string{"volunteer@example.org"},
		Subject:     "Welcome",
		HTMLBody:    "<p>hello</p>",
		Attachments: []Attachment{{Path: attachment(t)}},
	})
	require.NoError(t, err)
	require.Len(t, d.sent, 1)

	raw := render(t, d.sent[0])
	assert.Contains(t, raw, "To: volunteer@example.org")
	assert.Contains(t, raw, "Subject: Welcome")
	assert.Contains(t, raw, "text/html")
	assert.Contains(t, raw, `filename="123456789.pdf"`)
}

func TestSMTPSender_NoRecipients(t *testing.T) {
	d := &fakeDialer{}
	s := &SMTPSender{from: From{Address: "office@example.org"}, dialer: d}

	err := s.Send(context.Background(), &Message{Subject: "x"})

	assert.ErrorIs(t, err, ErrNoRecipients)
	assert.Empty(t, d.sent)
}

func TestSMTPSender_DialError(t *testing.T) {
	boom := errors.New("535 authentication failed")
	s := &SMTPSender{from: From{Address: "office@example.org"}, dialer: &fakeDialer{err: boom}}

	err := s.Send(context.Background(), &Message{To: []string{"a@example.org"}})

	assert.ErrorIs(t, err, boom)
}

func TestSMTPSender_CancelledContext(t *testing.T) {
	d := &fakeDialer{}
	s := &SMTPSender{from: From{Address: "office@example.org"}, dialer: d}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Send(ctx, &Message{To: []string{"a@example.org"}})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, d.sent)
}

func TestSESSender_SendsRawMessage(t *testing.T) {
	client := new(mockSES)
	s := &SESSender{from: From{Address: "office@example.org"}, configurationSet: "forms", client: client}

	client.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *sesv2.SendEmailInput) bool {
		return *in.FromEmailAddress == "office@example.org" &&
			*in.ConfigurationSetName == "forms" &&
			assert.ObjectsAreEqual([]string{"volunteer@example.org"}, in.Destination.ToAddresses) &&
			bytes.Contains(in.Content.Raw.Data, []byte(`filename="123456789.pdf"`))
	})).Return(&sesv2.SendEmailOutput{}, nil)

	err := s.Send(context.Background(), &Message{
		To:          []string{"volunteer@example.org"},
		Subject:     "Welcome",
		HTMLBody:    "<p>hello</p>",
		Attachments: []Attachment{{Path: attachment(t)}},
	})

	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestSESSender_MissingAttachment(t *testing.T) {
	client := new(mockSES)
	s := &SESSender{from: From{Address: "office@example.org"}, client: client}

	err := s.Send(context.Background(), &Message{
		To:          []string{"volunteer@example.org"},
		Attachments: []Attachment{{Path: filepath.Join(t.TempDir(), "missing.pdf")}},
	})

	assert.Error(t, err)
	client.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: "pigeon"})
	assert.ErrorIs(t, err, ErrUnknownProvider)

	s, err := New(context.Background(), Config{Provider: ProviderSMTP, SMTP: SMTPConfig{Host: "localhost", Port: 25}})
	require.NoError(t, err)
	assert.IsType(t, &SMTPSender{}, s)
}

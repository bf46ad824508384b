package session

import (
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salonso/geconsultas-bot/internal/domain"
	"github.com/salonso/geconsultas-bot/internal/selector"
)

type fakeReplier struct {
	mu        sync.Mutex
	texts     []string
	edits     map[int]tgbotapi.InlineKeyboardMarkup
	nextMsgID int
	lastMsgID int
}

func newFakeReplier() *fakeReplier {
	return &fakeReplier{
		edits:     make(map[int]tgbotapi.InlineKeyboardMarkup),
		nextMsgID: 100,
	}
}

func (f *fakeReplier) SendText(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeReplier) SendKeyboard(text string, _ tgbotapi.InlineKeyboardMarkup) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	f.nextMsgID++
	f.lastMsgID = f.nextMsgID
	return f.lastMsgID, nil
}

func (f *fakeReplier) EditKeyboard(messageID int, keyboard tgbotapi.InlineKeyboardMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits[messageID] = keyboard
	return nil
}

func (f *fakeReplier) AckCallback(string) error { return nil }

func (f *fakeReplier) lastKeyboardID() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastMsgID
}

func (f *fakeReplier) lastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1]
}

type recordingSink struct {
	mu      sync.Mutex
	records []*domain.Consulta
}

func (r *recordingSink) Enqueue(record *domain.Consulta) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
}

func (r *recordingSink) all() []*domain.Consulta {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.Consulta(nil), r.records...)
}

func listSource(values ...string) domain.DataSource {
	return domain.DataSourceFunc(func() ([]string, error) {
		return values, nil
	})
}

const testSecret = "hunter2"

func testConfig(sink domain.RecordSink) Config {
	return Config{
		SecretHash: hashText(testSecret),
		Courses:    listSource("CALC1", "FIS1"),
		Members:    listSource("Luis", "Marta", "Pedro"),
		Sink:       sink,
		PageLength: 5,
		Location:   time.FixedZone("UTC-4", -4*3600),
	}
}

func authenticate(t *testing.T, sess *Session, reply *fakeReplier) {
	t.Helper()
	sess.HandleCommand(Command{Name: "auth", User: 1, Reply: reply})
	sess.HandleText(TextMessage{Text: testSecret, User: 1, Reply: reply})
	require.Equal(t, AuthAuthenticated, sess.AuthState())
}

func press(sess *Session, reply *fakeReplier, messageID int, token string) {
	sess.HandleCallback(ButtonCallback{Token: token, MessageID: messageID, User: 1, Reply: reply})
}

func TestSession_AuthFlow(t *testing.T) {
	sink := &recordingSink{}
	sess := New(1, testConfig(sink))
	reply := newFakeReplier()

	require.Equal(t, AuthIdle, sess.AuthState())

	sess.HandleCommand(Command{Name: "auth", User: 1, Reply: reply})
	assert.Equal(t, AuthAuthenticating, sess.AuthState())

	// Wrong secret: stays authenticating with a retry prompt.
	sess.HandleText(TextMessage{Text: "wrong", User: 1, Reply: reply})
	assert.Equal(t, AuthAuthenticating, sess.AuthState())
	assert.Contains(t, reply.lastText(), "inválida")

	sess.HandleText(TextMessage{Text: testSecret, User: 1, Reply: reply})
	assert.Equal(t, AuthAuthenticated, sess.AuthState())
}

func TestSession_RegisterRequiresAuth(t *testing.T) {
	sink := &recordingSink{}
	sess := New(1, testConfig(sink))
	reply := newFakeReplier()

	sess.HandleCommand(Command{Name: "registrar", User: 1, Reply: reply})

	assert.Equal(t, InputIdle, sess.InputState())
	assert.Contains(t, reply.lastText(), "/auth")
}

func TestSession_TextEntryIgnoredWhileIdle(t *testing.T) {
	sink := &recordingSink{}
	sess := New(1, testConfig(sink))
	reply := newFakeReplier()
	authenticate(t, sess, reply)

	sess.HandleText(TextMessage{Text: "Ana", User: 1, Reply: reply})

	assert.Equal(t, InputIdle, sess.InputState())
	assert.Empty(t, sess.record.StudentName)
}

func TestSession_EndToEndFlow(t *testing.T) {
	sink := &recordingSink{}
	sess := New(1, testConfig(sink))
	reply := newFakeReplier()

	authenticate(t, sess, reply)

	sess.HandleCommand(Command{Name: "registrar", User: 1, Reply: reply})
	require.Equal(t, InputStudentName, sess.InputState())

	sess.HandleText(TextMessage{Text: "Ana", User: 1, Reply: reply})
	require.Equal(t, InputCourseName, sess.InputState())

	press(sess, reply, reply.lastKeyboardID(), "CALC1")
	require.Equal(t, InputAssistName, sess.InputState())

	press(sess, reply, reply.lastKeyboardID(), "Luis")
	require.Equal(t, InputAuxName, sess.InputState())

	press(sess, reply, reply.lastKeyboardID(), "Marta")
	require.Equal(t, InputReceivedDate, sess.InputState())

	press(sess, reply, reply.lastKeyboardID(), selector.ActionConfirm)
	require.Equal(t, InputStartDate, sess.InputState())

	press(sess, reply, reply.lastKeyboardID(), selector.ActionConfirm)
	require.Equal(t, InputEndDate, sess.InputState())

	press(sess, reply, reply.lastKeyboardID(), selector.ActionConfirm)

	// Implicit restart after completion.
	assert.Equal(t, InputIdle, sess.InputState())

	records := sink.all()
	require.Len(t, records, 1)

	record := records[0]
	assert.Equal(t, "Ana", record.StudentName)
	assert.Equal(t, "CALC1", record.CourseName)
	assert.Equal(t, "Luis", record.AssistantName)
	assert.Equal(t, "Marta", record.AuxiliaryName)
	assert.NotEmpty(t, record.ReceivedAt)
	assert.NotEmpty(t, record.StartedAt)
	assert.NotEmpty(t, record.EndedAt)
	assert.True(t, record.IsComplete())

	// Start reuses the received values, so both confirmations match.
	assert.Equal(t, record.ReceivedAt, record.StartedAt)
}

func TestSession_RegisterMidFlowDiscardsRecord(t *testing.T) {
	sink := &recordingSink{}
	sess := New(1, testConfig(sink))
	reply := newFakeReplier()

	authenticate(t, sess, reply)

	sess.HandleCommand(Command{Name: "registrar", User: 1, Reply: reply})
	sess.HandleText(TextMessage{Text: "Ana", User: 1, Reply: reply})
	press(sess, reply, reply.lastKeyboardID(), "CALC1")

	// A second register clobbers the half-built record, no partial save.
	sess.HandleCommand(Command{Name: "registrar", User: 1, Reply: reply})

	assert.Equal(t, InputStudentName, sess.InputState())
	assert.Empty(t, sess.record.StudentName)
	assert.Empty(t, sess.record.CourseName)
	assert.Empty(t, sink.all())
}

func TestSession_RestartClearsFlow(t *testing.T) {
	sink := &recordingSink{}
	sess := New(1, testConfig(sink))
	reply := newFakeReplier()

	authenticate(t, sess, reply)
	sess.HandleCommand(Command{Name: "registrar", User: 1, Reply: reply})
	sess.HandleText(TextMessage{Text: "Ana", User: 1, Reply: reply})
	courseKeyboard := reply.lastKeyboardID()

	sess.HandleCommand(Command{Name: "restart", User: 1, Reply: reply})

	assert.Equal(t, InputIdle, sess.InputState())
	assert.Empty(t, sess.record.StudentName)

	// The old keyboard is stale: its selector was reset.
	press(sess, reply, courseKeyboard, "CALC1")
	assert.Empty(t, sess.record.CourseName)
	assert.Equal(t, InputIdle, sess.InputState())
}

func TestSession_LogoutClearsEverything(t *testing.T) {
	sink := &recordingSink{}
	sess := New(1, testConfig(sink))
	reply := newFakeReplier()

	// Logout while not authenticated is a no-op.
	evict := sess.HandleCommand(Command{Name: "logout", User: 1, Reply: reply})
	assert.False(t, evict)

	authenticate(t, sess, reply)
	sess.HandleCommand(Command{Name: "registrar", User: 1, Reply: reply})
	sess.HandleText(TextMessage{Text: "Ana", User: 1, Reply: reply})

	evict = sess.HandleCommand(Command{Name: "logout", User: 1, Reply: reply})

	assert.True(t, evict)
	assert.Equal(t, AuthIdle, sess.AuthState())
	assert.Equal(t, InputIdle, sess.InputState())
	assert.Empty(t, sess.record.StudentName)
}

func TestSession_StaleSelectorPressIgnored(t *testing.T) {
	sink := &recordingSink{}
	sess := New(1, testConfig(sink))
	reply := newFakeReplier()

	authenticate(t, sess, reply)
	sess.HandleCommand(Command{Name: "registrar", User: 1, Reply: reply})
	sess.HandleText(TextMessage{Text: "Ana", User: 1, Reply: reply})
	courseKeyboard := reply.lastKeyboardID()

	press(sess, reply, courseKeyboard, "CALC1")
	require.Equal(t, InputAssistName, sess.InputState())

	// A second press on the completed course keyboard changes nothing.
	press(sess, reply, courseKeyboard, "FIS1")

	assert.Equal(t, "CALC1", sess.record.CourseName)
	assert.Equal(t, InputAssistName, sess.InputState())
}

func TestSession_PaginationNavigation(t *testing.T) {
	sink := &recordingSink{}
	cfg := testConfig(sink)
	cfg.PageLength = 2
	cfg.Courses = listSource("CALC1", "FIS1", "QUIM1", "PROG1", "ALG1")
	sess := New(1, cfg)
	reply := newFakeReplier()

	authenticate(t, sess, reply)
	sess.HandleCommand(Command{Name: "registrar", User: 1, Reply: reply})
	sess.HandleText(TextMessage{Text: "Ana", User: 1, Reply: reply})
	courseKeyboard := reply.lastKeyboardID()

	// Left at the first page is silently ignored: no keyboard edit.
	press(sess, reply, courseKeyboard, selector.ActionLeft)
	_, edited := reply.edits[courseKeyboard]
	assert.False(t, edited)

	// Right to the second page re-renders the keyboard in place.
	press(sess, reply, courseKeyboard, selector.ActionRight)
	_, edited = reply.edits[courseKeyboard]
	assert.True(t, edited)
	assert.Equal(t, InputCourseName, sess.InputState())
}

func TestSession_StartCommandResetsAndShowsHelp(t *testing.T) {
	sink := &recordingSink{}
	sess := New(1, testConfig(sink))
	reply := newFakeReplier()

	authenticate(t, sess, reply)
	sess.HandleCommand(Command{Name: "registrar", User: 1, Reply: reply})
	sess.HandleText(TextMessage{Text: "Ana", User: 1, Reply: reply})

	sess.HandleCommand(Command{Name: "start", User: 1, Reply: reply})

	assert.Equal(t, AuthIdle, sess.AuthState())
	assert.Equal(t, InputIdle, sess.InputState())
	assert.Contains(t, reply.lastText(), "Geconsultas")
}

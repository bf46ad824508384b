package session

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/salonso/geconsultas-bot/internal/domain"
	"github.com/salonso/geconsultas-bot/internal/selector"
)

// AuthState is the authentication machine of a session.
type AuthState int

const (
	AuthIdle AuthState = iota
	AuthAuthenticating
	AuthAuthenticated
)

// InputState is the data-entry machine of a session. The steps are a
// fixed linear pipeline.
type InputState int

const (
	InputIdle InputState = iota
	InputStudentName
	InputCourseName
	InputAssistName
	InputAuxName
	InputReceivedDate
	InputStartDate
	InputEndDate
	InputEnd
)

const helpText = "¡Hola! Soy el ayudante virtual de Geconsultas 🙂\n" +
	"Conmigo puedes ingresar los datos de tu Geconsulta de forma automatizada, sin rollos 😎\n" +
	"➡️ Usa el comando /auth para autenticar tu chat 🔐\n" +
	"➡️ Usa el comando /registrar para ingresar datos 📝\n" +
	"➡️ Usa el comando /restart para borrar los datos y comenzar desde cero 🔄"

// Config carries the collaborators every session needs.
type Config struct {
	// SecretHash is the SHA-256 hex digest of the shared secret.
	SecretHash string
	Courses    domain.DataSource
	Members    domain.DataSource
	Sink       domain.RecordSink
	PageLength int
	Location   *time.Location
}

// Session is one user's conversation context: the auth and input
// machines, the record in progress and the selector widgets. All
// mutation is serialized by the session's own lock; events for the same
// user arriving on different transport goroutines never interleave
// inside a transition.
type Session struct {
	mu sync.Mutex

	user int64
	cfg  Config
	log  *logrus.Entry

	authState  AuthState
	inputState InputState
	record     *domain.Consulta

	courseSelector *selector.Paginated
	memberSelector *selector.Paginated
	dateSelector   *selector.DateWheel

	// pending binds an outbound message id to the selector that
	// rendered it. Entries are added lazily on the first callback for a
	// message and never removed or rebound.
	pending map[int]selector.Selector
}

// New creates an idle session for the given user.
func New(user int64, cfg Config) *Session {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	return &Session{
		user:           user,
		cfg:            cfg,
		log:            logrus.WithField("user_id", user),
		record:         &domain.Consulta{},
		courseSelector: selector.NewPaginated(cfg.Courses, cfg.PageLength),
		memberSelector: selector.NewPaginated(cfg.Members, cfg.PageLength),
		dateSelector:   selector.NewDateWheel(cfg.Location),
		pending:        make(map[int]selector.Selector),
	}
}

// AuthState returns the current authentication state.
func (s *Session) AuthState() AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authState
}

// InputState returns the current data-entry state.
func (s *Session) InputState() InputState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inputState
}

// HandleCommand processes a slash command. The returned flag tells the
// router to evict the session; it is set only on a successful logout
// from the authenticated state.
func (s *Session) HandleCommand(ev Command) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Name {
	case "start":
		s.restart(ev.Reply, true)
		s.logout(ev.Reply, true)
		s.sendText(ev.Reply, helpText)
		return false
	case "help":
		s.sendText(ev.Reply, helpText)
		return false
	case "registrar", "register":
		s.register(ev.Reply)
		return false
	case "restart":
		s.restart(ev.Reply, false)
		return false
	case "auth":
		s.auth(ev.Reply)
		return false
	case "logout":
		return s.logout(ev.Reply, false)
	default:
		s.sendText(ev.Reply, "Comando desconocido 🤔 Usa /help para ver las opciones")
		return false
	}
}

// HandleText processes a free-text message against whichever machine is
// expecting text.
func (s *Session) HandleText(ev TextMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inputState > InputIdle && s.authState == AuthAuthenticated {
		s.handleInputText(ev)
		return
	}

	if s.authState == AuthAuthenticating {
		s.authenticate(ev)
	}
}

// HandleCallback routes a button press to the selector bound to the
// pressed message.
func (s *Session) HandleCallback(ev ButtonCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ev.Reply.AckCallback(""); err != nil {
		s.log.WithError(err).Warn("Failed to ack callback")
	}

	sel, ok := s.pending[ev.MessageID]
	if !ok {
		// First callback for this message: bind it to the selector that
		// is currently armed. A press on a long-stale keyboard can
		// therefore reach a newer selector of the same kind; the source
		// design leaves this unresolved and so do we.
		sel = s.armedSelector()
		if sel == nil {
			return
		}
		s.pending[ev.MessageID] = sel
	}

	res := sel.HandleToken(ev.Token)

	switch res.Outcome {
	case selector.OutcomeUpdated:
		if err := ev.Reply.EditKeyboard(ev.MessageID, sel.Keyboard()); err != nil {
			s.log.WithError(err).Warn("Failed to update selector keyboard")
		}
	case selector.OutcomeSelected:
		if err := ev.Reply.EditKeyboard(ev.MessageID, sel.CollapsedKeyboard()); err != nil {
			s.log.WithError(err).Warn("Failed to collapse selector keyboard")
		}
		s.applySelection(res.Value, ev.Reply)
	case selector.OutcomeIgnored:
		// Stale press or bounds no-op; widget unchanged.
	}
}

// register starts (or restarts) a data-entry flow.
func (s *Session) register(reply Replier) {
	if s.authState != AuthAuthenticated {
		s.sendText(reply, "Por favor, usa el comando /auth para autenticar tu chat primero ✅")
		return
	}

	// A register mid-flow clobbers the old data; there is no partial save.
	if s.inputState > InputIdle {
		s.record = &domain.Consulta{}
	}

	s.log.Info("Data entry requested")

	s.inputState = InputStudentName
	s.sendText(reply, "Por favor, sigue los pasos para registrar tu consulta 🙂")
	s.sendText(reply, "Introduce el nombre del estudiante 📖⬇️")
}

// restart clears the in-progress record and re-arms every selector.
func (s *Session) restart(reply Replier, silent bool) {
	if s.authState != AuthAuthenticated {
		return
	}

	s.record = &domain.Consulta{}
	s.inputState = InputIdle
	s.resetSelectors()

	if !silent {
		s.sendText(reply, "¡Datos reseteados!")
	}
}

// auth moves the session into the authenticating state.
func (s *Session) auth(reply Replier) {
	if s.authState == AuthAuthenticated {
		s.sendText(reply, "Parece que ya estás autenticado 🙂\n"+
			"Para registrar tu consulta, usa el comando /registrar 📝")
		return
	}

	s.log.Info("Auth requested")

	s.authState = AuthAuthenticating
	s.sendText(reply, "Por favor, introduce la contraseña 🙂")
}

// logout leaves the authenticated state, clearing any in-progress entry
// as a side effect. Logout from any other state is a no-op.
func (s *Session) logout(reply Replier, silent bool) bool {
	if s.authState != AuthAuthenticated {
		return false
	}

	s.record = &domain.Consulta{}
	s.inputState = InputIdle
	s.resetSelectors()
	s.authState = AuthIdle

	if !silent {
		s.sendText(reply, "Sesión cerrada con éxito 🙂 ¡Nos vemos!")
	}

	return true
}

// authenticate checks a submitted secret against the configured hash.
func (s *Session) authenticate(ev TextMessage) {
	if hashText(ev.Text) == s.cfg.SecretHash {
		s.authState = AuthAuthenticated
		s.log.Info("Auth completed")
		s.sendText(ev.Reply, "¡Autenticación completa! 😎 Ahora puedes usar /registrar para comenzar la entrada de datos.")
		return
	}

	// No lockout, no backoff; the user simply retries.
	s.log.Info("Auth attempt failed")
	s.sendText(ev.Reply, "Contraseña inválida, por favor intenta nuevamente.")
}

// handleInputText feeds a text message to the input machine. Only the
// student-name step accepts text; every other step is button-driven.
func (s *Session) handleInputText(ev TextMessage) {
	switch s.inputState {
	case InputStudentName:
		if ev.Text == "" {
			s.sendText(ev.Reply, "Parece que no enviaste un nombre válido 🤔\n"+
				"Por favor, inténtalo de nuevo 👇")
			return
		}

		s.record.StudentName = ev.Text
		s.inputState = InputCourseName
		s.armPaginated(s.courseSelector, ev.Reply, "¡Genial! Ahora dime la materia ☺️⬇️")
	default:
		// Button-driven steps ignore text.
	}
}

// applySelection stores a terminal selector value and advances the
// input machine, arming the next widget.
func (s *Session) applySelection(value string, reply Replier) {
	switch s.inputState {
	case InputCourseName:
		s.record.CourseName = value
		s.inputState = InputAssistName
		s.armPaginated(s.memberSelector, reply, "¡Perfecto! ¿Qué miembro atendió la consulta? 🧑‍🏫⬇️")
	case InputAssistName:
		s.record.AssistantName = value
		s.inputState = InputAuxName
		// Same widget, re-armed with fresh data for the auxiliary field.
		s.armPaginated(s.memberSelector, reply, "¿Y qué miembro apoyó la consulta? 🤝⬇️")
	case InputAuxName:
		s.record.AuxiliaryName = value
		s.inputState = InputReceivedDate
		s.armDateWheel(reply, false, "¿Cuándo se recibió la consulta? 🕐⬇️")
	case InputReceivedDate:
		s.record.ReceivedAt = value
		s.inputState = InputStartDate
		// The start time is usually close to the received time, so the
		// wheel keeps its confirmed values as the starting point.
		s.armDateWheel(reply, true, "¿Cuándo comenzó la atención? 🕑⬇️")
	case InputStartDate:
		s.record.StartedAt = value
		s.inputState = InputEndDate
		s.armDateWheel(reply, false, "¿Cuándo terminó la consulta? 🕒⬇️")
	case InputEndDate:
		s.record.EndedAt = value
		s.inputState = InputEnd
		s.finish(reply)
	}
}

// finish hands the completed record to the sink and silently resets the
// flow so the user can begin a new entry immediately.
func (s *Session) finish(reply Replier) {
	s.cfg.Sink.Enqueue(s.record)
	s.log.Info("Consulta completed and enqueued")

	s.sendText(reply, "¡Listo! Tu consulta fue registrada con éxito ✅")
	s.sendText(reply, "Los datos serán ingresados al registro en unos momentos 🙂")
	s.sendText(reply, "Puedes registrar otra consulta con /registrar 📝")

	s.record = &domain.Consulta{}
	s.inputState = InputIdle
	s.resetSelectors()
}

// armPaginated re-arms a list selector with fresh data and sends its
// keyboard.
func (s *Session) armPaginated(sel *selector.Paginated, reply Replier, prompt string) {
	sel.Reset()
	if err := sel.Fetch(); err != nil {
		s.log.WithError(err).Error("Failed to fetch selector data")
		s.sendText(reply, "Hubo un problema obteniendo los datos 😔 Usa /restart e intenta de nuevo")
		return
	}

	if _, err := reply.SendKeyboard(prompt, sel.Keyboard()); err != nil {
		s.log.WithError(err).Error("Failed to send selector keyboard")
	}
}

// armDateWheel re-arms the date wheel and sends its keyboard.
func (s *Session) armDateWheel(reply Replier, persist bool, prompt string) {
	s.dateSelector.Reset(persist)

	if _, err := reply.SendKeyboard(prompt, s.dateSelector.Keyboard()); err != nil {
		s.log.WithError(err).Error("Failed to send date keyboard")
	}
}

// armedSelector returns the widget the current input step is waiting
// on, or nil when no selector is expected.
func (s *Session) armedSelector() selector.Selector {
	switch s.inputState {
	case InputCourseName:
		return s.courseSelector
	case InputAssistName, InputAuxName:
		return s.memberSelector
	case InputReceivedDate, InputStartDate, InputEndDate:
		return s.dateSelector
	default:
		return nil
	}
}

func (s *Session) resetSelectors() {
	s.courseSelector.Reset()
	s.memberSelector.Reset()
	s.dateSelector.Reset(false)
}

func (s *Session) sendText(reply Replier, text string) {
	if err := reply.SendText(text); err != nil {
		s.log.WithError(err).Warn("Failed to send reply")
	}
}

// hashText returns the SHA-256 hex digest of the given UTF-8 text.
func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

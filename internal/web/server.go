// Package web serves the game as server-rendered HTML. Each browser gets a
// session cookie; its profile lives in the shared KV under a per-session
// prefix, the way the browser game kept it in local storage.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/relic-hunt/pkg/game"
	"github.com/jwebster45206/relic-hunt/pkg/location"
	"github.com/jwebster45206/relic-hunt/pkg/profile"
	"github.com/jwebster45206/relic-hunt/pkg/render"
	"github.com/jwebster45206/relic-hunt/pkg/scoreapi"
	"github.com/jwebster45206/relic-hunt/pkg/storage"
	"github.com/jwebster45206/relic-hunt/pkg/textfilter"
)

const (
	SessionCookie = "relic_session"
	keyPrefix     = "relic-hunt:"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	loginTemplate = template.Must(template.ParseFS(templateFS, "templates/login.html"))
	gameTemplate  = template.Must(template.ParseFS(templateFS, "templates/game.html"))
)

type Options struct {
	KV            storage.KV
	API           scoreapi.API // nil plays offline
	Source        location.Source
	Logger        *slog.Logger
	AssetsDir     string
	ProgressScale float64
	Rand          game.Randomizer

	// SettleQuiet and SettleTimeout bound how long a POST waits for the
	// controller before redirecting back to the board.
	SettleQuiet   time.Duration
	SettleTimeout time.Duration

	// SessionTTL drops sessions idle for longer. Their profiles stay in KV.
	SessionTTL time.Duration
}

const sweepInterval = time.Minute

type session struct {
	ui   *WebUI
	repo *profile.Repository

	mu      sync.Mutex
	ctrl    *game.Controller
	started bool
	running sync.WaitGroup // Dispatches in flight on ctrl

	lastSeen time.Time // Guarded by Server.mu
}

type Server struct {
	opts   Options
	logger *slog.Logger
	mux    *http.ServeMux
	now    func() time.Time

	ctx    context.Context // Parent of every dispatched action
	cancel context.CancelFunc

	mu        sync.Mutex
	sessions  map[string]*session
	nextSweep time.Time
	actions   sync.WaitGroup
}

func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.SettleQuiet <= 0 {
		opts.SettleQuiet = 50 * time.Millisecond
	}
	if opts.SettleTimeout <= 0 {
		opts.SettleTimeout = time.Second
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		opts:     opts,
		logger:   opts.Logger,
		mux:      http.NewServeMux(),
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*session),
	}

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /login", s.handleLogin)
	s.mux.HandleFunc("GET /game", s.handleGame)
	s.mux.HandleFunc("POST /locations/{index}", s.handleDispatch)
	s.mux.HandleFunc("POST /answer", s.handleAnswer)
	s.mux.HandleFunc("POST /abandon", s.handleAbandon)

	if opts.AssetsDir != "" {
		images := filepath.Join(opts.AssetsDir, "images", "items")
		s.mux.Handle("GET /images/items/", http.StripPrefix(render.ImagePath, http.FileServer(http.Dir(images))))
		s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(opts.AssetsDir))))
	}
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Close abandons running actions and waits for them and their score pushes.
func (s *Server) Close() {
	s.cancel()
	s.actions.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		sess.mu.Lock()
		if sess.ctrl != nil {
			sess.ctrl.Flush()
		}
		sess.mu.Unlock()
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if _, err := sess.repo.Load(r.Context()); err == nil {
		http.Redirect(w, r, "/game", http.StatusSeeOther)
		return
	}
	s.renderLogin(w, http.StatusOK, "")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if err := retire(sess); err != nil {
		s.logger.Info("Login refused while an action runs", "error", err)
		s.renderLogin(w, http.StatusConflict, "另一个任务正在进行中，请稍后再试")
		return
	}

	p, err := game.Register(r.Context(), sess.repo, s.opts.API, r.PostFormValue("nickname"), s.logger)
	switch {
	case errors.Is(err, textfilter.ErrEmptyNickname):
		s.renderLogin(w, http.StatusBadRequest, "请输入昵称")
		return
	case errors.Is(err, textfilter.ErrNicknameTooLong):
		s.renderLogin(w, http.StatusBadRequest, "昵称太长了")
		return
	case err != nil:
		s.logger.Error("Failed to register player", "error", err)
		s.renderLogin(w, http.StatusInternalServerError, "注册失败，请重试")
		return
	}

	// A new profile means a new game.
	sess.mu.Lock()
	sess.ctrl = s.newController(sess)
	sess.started = false
	sess.mu.Unlock()

	s.logger.Info("Player logged in", "player_id", p.ID, "nickname", p.Nickname)
	http.Redirect(w, r, "/game", http.StatusSeeOther)
}

func (s *Server) handleGame(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	ctrl, err := s.start(r.Context(), sess)
	if errors.Is(err, game.ErrNoProfile) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		var le *game.LoadError
		if !errors.As(err, &le) {
			s.logger.Error("Failed to start game", "error", err)
		}
	}
	s.renderGame(w, r, sess, ctrl)
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		http.Error(w, "invalid location", http.StatusBadRequest)
		return
	}
	ctrl, err := s.start(r.Context(), sess)
	if err != nil {
		http.Redirect(w, r, "/game", http.StatusSeeOther)
		return
	}

	since := sess.ui.View().Version
	s.actions.Add(1)
	sess.running.Add(1)
	go func() {
		defer s.actions.Done()
		defer sess.running.Done()
		err := ctrl.Dispatch(s.ctx, index)
		if err != nil && errors.Is(err, game.ErrUnknownLocation) {
			s.logger.Warn("Dispatch for unknown location", "index", index)
		}
	}()

	sess.ui.WaitSettled(since, s.opts.SettleQuiet, s.opts.SettleTimeout)
	http.Redirect(w, r, "/game", http.StatusSeeOther)
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	since := sess.ui.View().Version
	if sess.ui.Submit(r.PostFormValue("answer")) {
		sess.ui.WaitSettled(since, s.opts.SettleQuiet, s.opts.SettleTimeout)
	}
	http.Redirect(w, r, "/game", http.StatusSeeOther)
}

func (s *Server) handleAbandon(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.mu.Lock()
	ctrl := sess.ctrl
	sess.mu.Unlock()

	since := sess.ui.View().Version
	if ctrl != nil && ctrl.Abandon() == nil {
		sess.ui.WaitSettled(since, s.opts.SettleQuiet, s.opts.SettleTimeout)
	}
	http.Redirect(w, r, "/game", http.StatusSeeOther)
}

// retire stops the session's current game so a new login can replace it.
// An open puzzle is abandoned. A timed action cannot be, so it yields
// game.ErrBusy.
func retire(sess *session) error {
	sess.mu.Lock()
	old := sess.ctrl
	sess.mu.Unlock()

	if old.State() != game.Idle {
		if err := old.Abandon(); err != nil {
			return game.ErrBusy
		}
	}
	sess.running.Wait()
	return nil
}

// session returns the caller's session, issuing a cookie when needed.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *session {
	id := ""
	if c, err := r.Cookie(SessionCookie); err == nil && uuid.Validate(c.Value) == nil {
		id = c.Value
	}
	if id == "" {
		id = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Now().AddDate(1, 0, 0),
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweepLocked(now)
	sess, ok := s.sessions[id]
	if !ok {
		sess = &session{
			ui:   NewWebUI(),
			repo: profile.NewRepository(storage.Prefixed(s.opts.KV, keyPrefix+id+":")),
		}
		sess.ctrl = s.newController(sess)
		s.sessions[id] = sess
	}
	sess.lastSeen = now
	return sess
}

// sweepLocked drops sessions idle past SessionTTL, at most once per
// sweepInterval. Sessions with an action in progress are kept.
func (s *Server) sweepLocked(now time.Time) {
	if now.Before(s.nextSweep) {
		return
	}
	s.nextSweep = now.Add(sweepInterval)

	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) <= s.opts.SessionTTL {
			continue
		}
		if !sess.mu.TryLock() {
			continue
		}
		ctrl := sess.ctrl
		sess.mu.Unlock()
		if ctrl.State() != game.Idle {
			continue
		}

		delete(s.sessions, id)
		s.logger.Debug("Session expired", "session", id)
		s.actions.Add(1)
		go func() {
			defer s.actions.Done()
			ctrl.Flush()
		}()
	}
}

func (s *Server) newController(sess *session) *game.Controller {
	return game.New(game.Options{
		Source:        s.opts.Source,
		Profiles:      sess.repo,
		API:           s.opts.API,
		Presenter:     sess.ui,
		Prompter:      sess.ui,
		Logger:        s.logger,
		Rand:          s.opts.Rand,
		ProgressScale: s.opts.ProgressScale,
	})
}

// start runs Start once per controller and returns it.
func (s *Server) start(ctx context.Context, sess *session) (*game.Controller, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.started {
		return sess.ctrl, nil
	}
	if err := sess.ctrl.Start(ctx); err != nil {
		return sess.ctrl, err
	}
	sess.started = true
	return sess.ctrl, nil
}

type noticeView struct {
	Class string
	Text  string
	Item  template.HTML
}

type gamePage struct {
	Nickname  string
	Notices   []noticeView
	Locations template.HTML
	Inventory template.HTML
	History   template.HTML
	Scores    template.HTML
	Puzzle    *game.Puzzle
	Progress  *progressView
	Refresh   bool
}

func noticeClass(k game.NoticeKind) string {
	switch k {
	case game.NoticeError, game.NoticePersistent:
		return "error"
	case game.NoticeItem:
		return "item"
	default:
		return "info"
	}
}

func (s *Server) renderGame(w http.ResponseWriter, r *http.Request, sess *session, ctrl *game.Controller) {
	v := sess.ui.View()
	snap := v.Snapshot

	page := gamePage{
		Nickname:  snap.Nickname,
		Locations: template.HTML(render.Locations(snap.Locations, snap.Inventory)),
		Inventory: template.HTML(render.Inventory(snap.Inventory)),
		History:   template.HTML(render.History(snap.History)),
		Puzzle:    v.Puzzle,
		Progress:  v.Progress,
	}
	for _, n := range v.Notices {
		nv := noticeView{Class: noticeClass(n.Kind), Text: n.Text}
		if n.Kind == game.NoticeItem && n.Item != "" {
			nv.Item = template.HTML(render.ItemObtained(n.Item))
		}
		page.Notices = append(page.Notices, nv)
	}

	state := ctrl.State()
	page.Refresh = v.Puzzle == nil && (v.Progress != nil || state == game.Running || hasTransient(v.Notices))
	if state == game.Idle && snap.PlayerID != "" {
		page.Scores = template.HTML(render.RemoteScores(ctrl.RemoteScores(r.Context())))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := gameTemplate.Execute(w, page); err != nil {
		s.logger.Error("Failed to render game page", "error", err)
	}
}

// hasTransient reports whether a notice will expire, so the page refreshes
// to clear it.
func hasTransient(notices []game.Notice) bool {
	for _, n := range notices {
		if n.Kind != game.NoticePersistent {
			return true
		}
	}
	return false
}

func (s *Server) renderLogin(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	data := struct {
		Error       string
		MaxNickname int
	}{strings.TrimSpace(msg), textfilter.MaxNicknameLength}
	if err := loginTemplate.Execute(w, data); err != nil {
		s.logger.Error("Failed to render login page", "error", err)
	}
}

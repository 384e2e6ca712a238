package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionNotFound    = errors.New("session not found")
)

// Session is the per-login context object. It is created at login, carried
// through request context, and removed at logout or expiry. Nothing else in
// the process holds per-user state.
type Session struct {
	Token       string    `json:"-"`
	Role        string    `json:"role"`
	StudentName string    `json:"student_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type ServiceConfig struct {
	TeacherPassword     string
	TeacherPasswordHash string
	StudentPassword     string
	StudentPasswordHash string
	SessionTTL          time.Duration
}

type Service struct {
	mu       sync.Mutex
	sessions map[string]*Session

	teacherPassword     string
	teacherPasswordHash string
	studentPassword     string
	studentPasswordHash string
	sessionTTL          time.Duration
}

type LoginInput struct {
	Role        string
	Password    string
	StudentName string
}

func NewService(cfg ServiceConfig) *Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 12 * time.Hour
	}
	return &Service{
		sessions:            make(map[string]*Session),
		teacherPassword:     cfg.TeacherPassword,
		teacherPasswordHash: strings.TrimSpace(cfg.TeacherPasswordHash),
		studentPassword:     cfg.StudentPassword,
		studentPasswordHash: strings.TrimSpace(cfg.StudentPasswordHash),
		sessionTTL:          cfg.SessionTTL,
	}
}

// Login checks the shared password for the requested role and opens a fresh
// session. Expired sessions are swept here so the store cannot grow without
// bound between logins.
func (s *Service) Login(in LoginInput) (*Session, error) {
	role := strings.ToLower(strings.TrimSpace(in.Role))
	switch role {
	case RoleTeacher:
		if !verifyPassword(in.Password, s.teacherPassword, s.teacherPasswordHash) {
			return nil, ErrInvalidCredentials
		}
	case RoleStudent:
		if !verifyPassword(in.Password, s.studentPassword, s.studentPasswordHash) {
			return nil, ErrInvalidCredentials
		}
	default:
		return nil, ErrInvalidCredentials
	}

	token, err := generateToken(32)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sess := &Session{
		Token:     token,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if role == RoleStudent {
		sess.StudentName = strings.TrimSpace(in.StudentName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepExpiredLocked(now)
	s.sessions[token] = sess
	return sess, nil
}

func (s *Service) GetSession(token string) (*Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if time.Now().After(sess.ExpiresAt) {
		delete(s.sessions, token)
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *Service) RevokeSession(token string) {
	if token == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

func (s *Service) sweepExpiredLocked(now time.Time) {
	for token, sess := range s.sessions {
		if now.After(sess.ExpiresAt) {
			delete(s.sessions, token)
		}
	}
}

// verifyPassword prefers a configured bcrypt hash; the plaintext shared
// password is only consulted when no hash is set. An unconfigured role can
// never log in.
func verifyPassword(given, plain, hash string) bool {
	if hash != "" {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(given)) == nil
	}
	if plain == "" {
		return false
	}
	return secureEqual(given, plain)
}

func secureEqual(a, b string) bool {
	ha := sha256.Sum256([]byte(a))
	hb := sha256.Sum256([]byte(b))
	return ha == hb
}

func generateToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"examroom/internal/config"
	"examroom/internal/domain"
	"examroom/internal/dto"
	"examroom/internal/logger"
	"examroom/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SessionService drives the exam attempt lifecycle: opening a timed attempt,
// recording selections in memory, and persisting everything exactly once at
// submission.
type SessionService interface {
	StartSession(ctx context.Context, accountID, examID string) (*dto.StartSessionResponse, error)
	SelectAnswer(ctx context.Context, accountID, attemptID, questionID, selected string) error
	GetState(ctx context.Context, accountID, attemptID string) (*dto.SessionStateResponse, error)
	Submit(ctx context.Context, accountID, attemptID string) (*dto.SubmitResponse, error)
	// Close stops timers and the abandoned-attempt janitor. Sessions still in
	// memory are dropped; their attempts are picked up by the janitor later.
	Close()
}

// examSession is the in-memory state of one active attempt. Selections live
// here until submission; nothing touches the answers table before then.
type examSession struct {
	attemptID string
	accountID string
	examID    string
	examTitle string

	passingScore int
	startedAt    time.Time
	deadline     time.Time

	questions []domain.Question
	passages  []domain.Passage

	mu      sync.RWMutex
	answers map[string]domain.AnswerLetter

	// submitLatch flips exactly once, before any submission I/O starts.
	submitLatch atomic.Bool
	timer       *time.Timer
}

func (s *examSession) remainingSeconds(now time.Time) int {
	remaining := int(s.deadline.Sub(now).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

type sessionServiceImpl struct {
	examRepo    domain.ExamRepository
	attemptRepo domain.AttemptRepository
	txManager   domain.TransactionManager
	cfg         config.SessionConfig

	mu       sync.Mutex
	sessions map[string]*examSession // keyed by attempt ID
	byOwner  map[string]string       // accountID+"/"+examID -> attempt ID

	janitorStop chan struct{}
	closeOnce   sync.Once
}

// NewSessionService creates the session engine and starts the abandoned
// attempt janitor when configured.
func NewSessionService(examRepo domain.ExamRepository, attemptRepo domain.AttemptRepository, txManager domain.TransactionManager, cfg config.SessionConfig) SessionService {
	s := &sessionServiceImpl{
		examRepo:    examRepo,
		attemptRepo: attemptRepo,
		txManager:   txManager,
		cfg:         cfg,
		sessions:    make(map[string]*examSession),
		byOwner:     make(map[string]string),
		janitorStop: make(chan struct{}),
	}
	if cfg.AbandonedTTL > 0 && cfg.JanitorInterval > 0 {
		go s.runJanitor()
	}
	return s
}

// StartSession opens a new attempt for the student on the exam.
//
// A completed attempt blocks re-entry until an admin grants a retake. If the
// student already has an active session on this exam (page reload, second
// tab), the existing session is returned instead of opening another attempt.
func (s *sessionServiceImpl) StartSession(ctx context.Context, accountID, examID string) (*dto.StartSessionResponse, error) {
	appLogger := logger.Get()

	if sess := s.lookupByOwner(accountID, examID); sess != nil {
		return s.toStartResponse(sess), nil
	}

	completed, err := s.attemptRepo.GetCompletedAttempt(ctx, accountID, examID)
	if err != nil {
		return nil, domain.NewInternalError("failed to check for a completed attempt", err)
	}
	if completed != nil {
		return nil, domain.NewExamAlreadyCompletedError(examID)
	}

	var (
		exam      *domain.Exam
		questions []domain.Question
		passages  []domain.Passage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		exam, err = s.examRepo.GetExamByID(gctx, examID)
		return err
	})
	g.Go(func() error {
		var err error
		questions, err = s.examRepo.GetQuestionsByExamID(gctx, examID)
		return err
	})
	g.Go(func() error {
		var err error
		passages, err = s.examRepo.GetPassagesByExamID(gctx, examID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, domain.NewInternalError("failed to load exam content", err)
	}
	if exam == nil || !exam.Published {
		return nil, domain.NewExamNotFoundError(examID)
	}
	if len(questions) == 0 {
		return nil, domain.NewInvalidInputError("exam has no questions")
	}

	sort.Slice(questions, func(i, j int) bool { return questions[i].OrderIndex < questions[j].OrderIndex })
	sort.Slice(passages, func(i, j int) bool { return passages[i].OrderIndex < passages[j].OrderIndex })

	attempt := domain.NewAttempt(accountID, examID, len(questions))
	attempt.ID = util.NewULID()
	if err := s.attemptRepo.CreateAttempt(ctx, attempt); err != nil {
		return nil, domain.NewInternalError("failed to create attempt", err)
	}

	sess := &examSession{
		attemptID:    attempt.ID,
		accountID:    accountID,
		examID:       examID,
		examTitle:    exam.Title,
		passingScore: exam.PassingScore,
		startedAt:    attempt.StartedAt,
		deadline:     attempt.StartedAt.Add(time.Duration(exam.DurationMinutes) * time.Minute),
		questions:    questions,
		passages:     passages,
		answers:      make(map[string]domain.AnswerLetter, len(questions)),
	}

	// The timer must be set before the session becomes visible through the
	// registry; publishing under s.mu makes the write visible to any goroutine
	// that later finds the session there.
	if s.cfg.AutoSubmit {
		sess.timer = time.AfterFunc(time.Until(sess.deadline), func() {
			s.autoSubmit(attempt.ID)
		})
	}

	s.mu.Lock()
	// Re-check under the lock; a concurrent StartSession may have won.
	if existingID, ok := s.byOwner[ownerKey(accountID, examID)]; ok {
		existing := s.sessions[existingID]
		s.mu.Unlock()
		if sess.timer != nil {
			sess.timer.Stop()
		}
		if err := s.attemptRepo.DeleteAttempt(ctx, attempt.ID); err != nil {
			appLogger.Warn("Failed to discard duplicate attempt", zap.String("attemptID", attempt.ID), zap.Error(err))
		}
		return s.toStartResponse(existing), nil
	}
	s.sessions[attempt.ID] = sess
	s.byOwner[ownerKey(accountID, examID)] = attempt.ID
	s.mu.Unlock()

	appLogger.Info("Exam session started",
		zap.String("attemptID", attempt.ID),
		zap.String("accountID", accountID),
		zap.String("examID", examID),
		zap.Int("questions", len(questions)),
	)
	return s.toStartResponse(sess), nil
}

// SelectAnswer records or overwrites the selection for one question. An empty
// selection clears a previous one.
func (s *sessionServiceImpl) SelectAnswer(ctx context.Context, accountID, attemptID, questionID, selected string) error {
	sess, err := s.activeSession(accountID, attemptID)
	if err != nil {
		return err
	}
	if time.Now().After(sess.deadline) {
		return domain.NewSessionNotActiveError(attemptID)
	}

	var question *domain.Question
	for i := range sess.questions {
		if sess.questions[i].ID == questionID {
			question = &sess.questions[i]
			break
		}
	}
	if question == nil {
		return domain.NewNotFoundError("question does not belong to this attempt")
	}

	letter := strings.ToUpper(strings.TrimSpace(selected))
	if letter != "" && !question.HasOption(letter) {
		return domain.NewInvalidInputError("selected option is not available on this question")
	}

	sess.mu.Lock()
	if letter == "" {
		delete(sess.answers, questionID)
	} else {
		sess.answers[questionID] = letter
	}
	sess.mu.Unlock()
	return nil
}

// GetState returns the observable state of an active session so a reloaded
// client can re-render its selections and countdown.
func (s *sessionServiceImpl) GetState(ctx context.Context, accountID, attemptID string) (*dto.SessionStateResponse, error) {
	sess, err := s.activeSession(accountID, attemptID)
	if err != nil {
		return nil, err
	}

	sess.mu.RLock()
	answers := make(map[string]string, len(sess.answers))
	for q, a := range sess.answers {
		answers[q] = a
	}
	sess.mu.RUnlock()

	return &dto.SessionStateResponse{
		AttemptID:        sess.attemptID,
		ExamID:           sess.examID,
		State:            "in_progress",
		RemainingSeconds: sess.remainingSeconds(time.Now()),
		Answers:          answers,
	}, nil
}

// Submit scores and persists the attempt exactly once.
//
// The latch flips before any I/O, so a double click, a retried request and a
// racing auto-submit all collapse into one persisted result. The answer batch
// and the attempt completion share one transaction; the completion UPDATE
// additionally guards on the attempt still being in progress.
func (s *sessionServiceImpl) Submit(ctx context.Context, accountID, attemptID string) (*dto.SubmitResponse, error) {
	sess, err := s.activeSession(accountID, attemptID)
	if err != nil {
		return nil, err
	}
	return s.submitSession(ctx, sess, false)
}

func (s *sessionServiceImpl) submitSession(ctx context.Context, sess *examSession, auto bool) (*dto.SubmitResponse, error) {
	appLogger := logger.Get()

	if !sess.submitLatch.CompareAndSwap(false, true) {
		return nil, domain.NewSubmitInProgressError()
	}

	if sess.timer != nil {
		sess.timer.Stop()
	}

	now := time.Now()
	elapsed := int(now.Sub(sess.startedAt).Seconds())
	// A submit landing past the deadline (late timer, disabled auto-submit)
	// never records more than the exam duration.
	if limit := int(sess.deadline.Sub(sess.startedAt).Seconds()); elapsed > limit {
		elapsed = limit
	}

	sess.mu.RLock()
	selections := make(map[string]domain.AnswerLetter, len(sess.answers))
	for q, a := range sess.answers {
		selections[q] = a
	}
	sess.mu.RUnlock()

	result := domain.Score(sess.questions, selections)

	answers := make([]domain.Answer, 0, len(sess.questions))
	for _, q := range sess.questions {
		selected := selections[q.ID]
		var isCorrect *bool
		if selected != "" {
			v := strings.EqualFold(selected, q.CorrectAnswer)
			isCorrect = &v
		}
		answers = append(answers, domain.Answer{
			ID:         util.NewULID(),
			AttemptID:  sess.attemptID,
			QuestionID: q.ID,
			Selected:   selected,
			IsCorrect:  isCorrect,
			CreatedAt:  now,
		})
	}

	attempt := &domain.Attempt{
		ID:             sess.attemptID,
		AccountID:      sess.accountID,
		ExamID:         sess.examID,
		StartedAt:      sess.startedAt,
		CompletedAt:    &now,
		TotalQuestions: result.Total,
		CorrectCount:   &result.CorrectCount,
		Percentage:     &result.Percentage,
		ElapsedSeconds: &elapsed,
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.attemptRepo.CreateAnswers(txCtx, answers); err != nil {
			return err
		}
		return s.attemptRepo.CompleteAttempt(txCtx, attempt)
	})
	if err != nil {
		// Roll the latch back so a retry can persist what the session still
		// holds; without this a transient DB error would strand the attempt.
		sess.submitLatch.Store(false)
		appLogger.Error("Failed to persist submission",
			zap.String("attemptID", sess.attemptID),
			zap.Bool("auto", auto),
			zap.Error(err),
		)
		return nil, domain.NewInternalError("failed to persist submission", err)
	}

	s.removeSession(sess)

	appLogger.Info("Attempt submitted",
		zap.String("attemptID", sess.attemptID),
		zap.String("accountID", sess.accountID),
		zap.Int("correct", result.CorrectCount),
		zap.Int("total", result.Total),
		zap.Float64("percentage", result.Percentage),
		zap.Bool("auto", auto),
	)

	return &dto.SubmitResponse{
		AttemptID:      sess.attemptID,
		CorrectCount:   result.CorrectCount,
		TotalQuestions: result.Total,
		Percentage:     result.Percentage,
		Passed:         domain.Passed(result.Percentage, sess.passingScore),
		ElapsedSeconds: elapsed,
		AutoSubmitted:  auto,
	}, nil
}

// autoSubmit fires when the countdown expires. It submits whatever the
// session holds; unanswered questions score as incorrect.
func (s *sessionServiceImpl) autoSubmit(attemptID string) {
	s.mu.Lock()
	sess, ok := s.sessions[attemptID]
	s.mu.Unlock()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := s.submitSession(ctx, sess, true); err != nil {
		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == domain.CodeSubmitInProgress {
			return // the student's own submit won the race
		}
		logger.Get().Error("Auto-submit failed", zap.String("attemptID", attemptID), zap.Error(err))
	}
}

func (s *sessionServiceImpl) runJanitor() {
	appLogger := logger.Get()
	ticker := time.NewTicker(s.cfg.JanitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.janitorStop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			cutoff := time.Now().Add(-s.cfg.AbandonedTTL)
			deleted, err := s.attemptRepo.DeleteAbandonedBefore(ctx, cutoff)
			cancel()
			if err != nil {
				appLogger.Error("Abandoned-attempt janitor failed", zap.Error(err))
				continue
			}
			if deleted > 0 {
				appLogger.Info("Cleaned up abandoned attempts", zap.Int("count", deleted))
			}
		}
	}
}

func (s *sessionServiceImpl) Close() {
	s.closeOnce.Do(func() {
		close(s.janitorStop)
		s.mu.Lock()
		for _, sess := range s.sessions {
			if sess.timer != nil {
				sess.timer.Stop()
			}
		}
		s.sessions = make(map[string]*examSession)
		s.byOwner = make(map[string]string)
		s.mu.Unlock()
	})
}

func (s *sessionServiceImpl) activeSession(accountID, attemptID string) (*examSession, error) {
	s.mu.Lock()
	sess, ok := s.sessions[attemptID]
	s.mu.Unlock()
	if !ok {
		return nil, domain.NewSessionNotActiveError(attemptID)
	}
	if sess.accountID != accountID {
		return nil, domain.NewForbiddenError("attempt belongs to another account")
	}
	return sess, nil
}

func (s *sessionServiceImpl) lookupByOwner(accountID, examID string) *examSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if attemptID, ok := s.byOwner[ownerKey(accountID, examID)]; ok {
		return s.sessions[attemptID]
	}
	return nil
}

func (s *sessionServiceImpl) removeSession(sess *examSession) {
	s.mu.Lock()
	delete(s.sessions, sess.attemptID)
	delete(s.byOwner, ownerKey(sess.accountID, sess.examID))
	s.mu.Unlock()
}

func (s *sessionServiceImpl) toStartResponse(sess *examSession) *dto.StartSessionResponse {
	questions := make([]dto.SessionQuestion, 0, len(sess.questions))
	for _, q := range sess.questions {
		questions = append(questions, dto.SessionQuestion{
			ID:        q.ID,
			PassageID: q.PassageID,
			Text:      q.Text,
			ImageURL:  q.ImageURL,
			Options:   q.Options(),
			Order:     q.OrderIndex,
		})
	}
	passages := make([]dto.SessionPassage, 0, len(sess.passages))
	for _, p := range sess.passages {
		passages = append(passages, dto.SessionPassage{
			ID:       p.ID,
			Title:    p.Title,
			Body:     p.Body,
			ImageURL: p.ImageURL,
			Order:    p.OrderIndex,
		})
	}
	return &dto.StartSessionResponse{
		AttemptID:        sess.attemptID,
		ExamID:           sess.examID,
		ExamTitle:        sess.examTitle,
		DurationMinutes:  int(sess.deadline.Sub(sess.startedAt).Minutes()),
		RemainingSeconds: sess.remainingSeconds(time.Now()),
		Questions:        questions,
		Passages:         passages,
	}
}

func ownerKey(accountID, examID string) string {
	return accountID + "/" + examID
}

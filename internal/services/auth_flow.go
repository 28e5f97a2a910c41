package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aquadic/souq4u/domain"
	"github.com/aquadic/souq4u/internal/locale"
	"github.com/aquadic/souq4u/internal/logutil"
	"github.com/aquadic/souq4u/internal/phone"
)

// Step is the screen the login flow is on
type Step int

const (
	StepPhone Step = iota
	StepVerify
)

func (s Step) String() string {
	switch s {
	case StepVerify:
		return "verify"
	default:
		return "phone"
	}
}

// Default polling budget: one check every 5 seconds, 60 checks.
const (
	DefaultPollInterval = 5 * time.Second
	DefaultMaxAttempts  = 60
)

// Sleeper blocks for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep is the Sleeper backed by a real timer
func ContextSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// FlowConfig holds the polling parameters
type FlowConfig struct {
	PollInterval time.Duration
	MaxAttempts  int
}

// AuthFlow drives login, verification and OTP polling. At most one poll
// loop runs at a time and checks within it are strictly sequential.
type AuthFlow struct {
	api      domain.StorefrontAPI
	session  *SessionStore
	notifier domain.Notifier
	locale   locale.Locale
	logger   *slog.Logger
	config   FlowConfig
	sleep    Sleeper

	mu      sync.Mutex
	step    Step
	attempt *domain.VerificationAttempt
	poll    *pollRun
}

// pollRun is one running poll loop
type pollRun struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// FlowOption configures an AuthFlow
type FlowOption func(*AuthFlow)

// WithSleeper replaces the poll timer
func WithSleeper(sleep Sleeper) FlowOption {
	return func(f *AuthFlow) { f.sleep = sleep }
}

// WithNotifier sets the receiver of user-facing notices. Notices about the
// poll outcome are delivered on the poll goroutine, which must not be
// blocked on Cancel.
func WithNotifier(n domain.Notifier) FlowOption {
	return func(f *AuthFlow) { f.notifier = n }
}

// WithFlowLocale sets the language notices are written in
func WithFlowLocale(l locale.Locale) FlowOption {
	return func(f *AuthFlow) { f.locale = l }
}

// WithFlowLogger sets the flow logger
func WithFlowLogger(logger *slog.Logger) FlowOption {
	return func(f *AuthFlow) { f.logger = logger }
}

// NewAuthFlow creates a login flow committing into session
func NewAuthFlow(api domain.StorefrontAPI, session *SessionStore, config FlowConfig, opts ...FlowOption) *AuthFlow {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultMaxAttempts
	}
	f := &AuthFlow{
		api:      api,
		session:  session,
		notifier: domain.NotifierFunc(func(domain.Notice) {}),
		locale:   locale.Default,
		logger:   logutil.Discard(),
		config:   config,
		sleep:    ContextSleep,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Step returns the current screen
func (f *AuthFlow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Attempt returns a copy of the verification attempt in progress, if any
func (f *AuthFlow) Attempt() (domain.VerificationAttempt, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.attempt == nil {
		return domain.VerificationAttempt{}, false
	}
	return *f.attempt, true
}

// Start logs in with the phone number, requests a verification code and
// starts polling for its confirmation. Any earlier attempt is discarded.
func (f *AuthFlow) Start(ctx context.Context, rawPhone, country string) (*domain.VerificationAttempt, error) {
	f.reset()

	number, err := phone.Normalize(rawPhone, country)
	if err != nil {
		f.notifier.Notify(domain.Notice{Level: domain.NoticeError, Message: err.Error(), Field: "phone"})
		return nil, err
	}

	login, err := f.api.PostLogin(ctx, number, country)
	if err != nil {
		f.report(err)
		return nil, logutil.DebugAndWrapErr(f.logger, "login request failed", err, "phone", number)
	}
	if login == nil || login.Token == "" {
		f.report(domain.ErrMissingToken)
		return nil, domain.ErrMissingToken
	}

	attempt := &domain.VerificationAttempt{
		Phone:        number,
		PhoneCountry: country,
		Token:        login.Token,
		StartedAt:    time.Now(),
	}

	resend, err := f.api.ResendVerification(ctx, number, login.Token, country)
	if err != nil {
		f.report(err)
		return nil, logutil.DebugAndWrapErr(f.logger, "verification request failed", err, "phone", number)
	}
	if resend == nil {
		resend = &domain.ResendResult{}
	}
	attempt.Reference = resend.Reference()
	attempt.Callback = resend.OTPCallback

	run := &pollRun{done: make(chan struct{})}
	pollCtx, cancel := context.WithCancel(ctx)
	run.cancel = cancel

	f.mu.Lock()
	f.attempt = attempt
	f.step = StepVerify
	f.poll = run
	f.mu.Unlock()

	f.notifyInfo(resend.Message, locale.MsgCodeSent)
	f.logger.Info("verification started", "phone", number, "reference", attempt.Reference)

	go f.run(pollCtx, run)

	out := *attempt
	return &out, nil
}

// Resend requests a new code for the attempt in progress. Polling carries
// on and picks up the new reference on its next check.
func (f *AuthFlow) Resend(ctx context.Context) (*domain.ResendResult, error) {
	f.mu.Lock()
	if f.attempt == nil {
		f.mu.Unlock()
		return nil, domain.ErrFlowNotStarted
	}
	attempt := *f.attempt
	f.mu.Unlock()

	resend, err := f.api.ResendVerification(ctx, attempt.Phone, attempt.Token, attempt.PhoneCountry)
	if err != nil {
		f.report(err)
		return nil, logutil.DebugAndWrapErr(f.logger, "verification resend failed", err, "phone", attempt.Phone)
	}
	if resend == nil {
		resend = &domain.ResendResult{}
	}

	f.mu.Lock()
	if f.attempt != nil && f.attempt.Token == attempt.Token {
		if ref := resend.Reference(); ref != "" {
			f.attempt.Reference = ref
			f.attempt.Callback = resend.OTPCallback
		}
	}
	f.mu.Unlock()

	f.notifyInfo(resend.Message, locale.MsgCodeSent)
	return resend, nil
}

// Wait blocks until the running poll loop ends and returns its outcome:
// nil on verification, ErrPollTimeout or ErrFlowCancelled otherwise.
func (f *AuthFlow) Wait(ctx context.Context) error {
	f.mu.Lock()
	run := f.poll
	f.mu.Unlock()
	if run == nil {
		return domain.ErrFlowNotStarted
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-run.done:
		return run.err
	}
}

// Cancel stops polling. It is safe to call any number of times, including
// after the loop has ended; when it returns no check is pending.
func (f *AuthFlow) Cancel() {
	f.mu.Lock()
	run := f.poll
	f.mu.Unlock()
	if run == nil {
		return
	}
	run.cancel()
	<-run.done
}

// ChangeNumber abandons the attempt and returns to phone entry
func (f *AuthFlow) ChangeNumber() {
	f.reset()
}

// Close abandons the flow entirely
func (f *AuthFlow) Close() {
	f.reset()
}

func (f *AuthFlow) reset() {
	f.Cancel()
	f.mu.Lock()
	f.attempt = nil
	f.step = StepPhone
	f.mu.Unlock()
}

func (f *AuthFlow) run(ctx context.Context, run *pollRun) {
	defer close(run.done)
	err := f.pollLoop(ctx, run)

	f.mu.Lock()
	run.err = err
	if err == nil {
		f.step = StepPhone
		f.attempt = nil
	}
	f.mu.Unlock()

	// notices go out before done closes so Wait observes them
	switch {
	case err == nil:
		f.notifier.Notify(domain.Notice{Level: domain.NoticeSuccess, Message: f.locale.Translate(locale.MsgLoginSuccess)})
	case errors.Is(err, domain.ErrPollTimeout):
		f.notifier.Notify(domain.Notice{Level: domain.NoticeError, Message: f.locale.Translate(locale.MsgVerificationTimeout)})
	}
}

func (f *AuthFlow) pollLoop(ctx context.Context, run *pollRun) error {
	defer run.cancel()

	for i := 1; i <= f.config.MaxAttempts; i++ {
		if ctx.Err() != nil {
			return domain.ErrFlowCancelled
		}
		if err := f.sleep(ctx, f.config.PollInterval); err != nil {
			return domain.ErrFlowCancelled
		}

		f.mu.Lock()
		if f.attempt == nil {
			f.mu.Unlock()
			return domain.ErrFlowCancelled
		}
		attempt := *f.attempt
		f.mu.Unlock()

		res, err := f.api.CheckOTP(ctx, attempt.Phone, attempt.Token, attempt.PhoneCountry, attempt.Reference)

		f.mu.Lock()
		if ctx.Err() != nil || f.poll != run {
			f.mu.Unlock()
			return domain.ErrFlowCancelled
		}
		f.mu.Unlock()

		if err != nil {
			f.logger.Debug("otp check failed, retrying", "attempt", i, "error", err)
			continue
		}
		if !res.Verified() {
			continue
		}

		if err := f.session.Login(context.WithoutCancel(ctx), res.User, res.Token); err != nil {
			f.logger.Warn("verified session could not be persisted", "error", err)
		}
		f.logger.Info("phone verified", "phone", attempt.Phone, "attempts", i)
		return nil
	}

	f.logger.Info("verification polling timed out", "phone", f.phoneOrEmpty(), "attempts", f.config.MaxAttempts)
	return fmt.Errorf("%w after %d attempts", domain.ErrPollTimeout, f.config.MaxAttempts)
}

func (f *AuthFlow) phoneOrEmpty() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.attempt == nil {
		return ""
	}
	return f.attempt.Phone
}

// report turns a failed login or resend into notices: one per server
// field message when there are any, a generic message otherwise.
func (f *AuthFlow) report(err error) {
	fields := fieldErrors(err)
	if len(fields) == 0 {
		f.notifier.Notify(domain.Notice{Level: domain.NoticeError, Message: f.locale.Translate(locale.MsgGenericFailure)})
		return
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, msg := range fields[name] {
			f.notifier.Notify(domain.Notice{Level: domain.NoticeError, Message: msg, Field: name})
		}
	}
}

func fieldErrors(err error) map[string][]string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	var se *domain.ServerError
	if errors.As(err, &se) {
		return se.Errors
	}
	return nil
}

func (f *AuthFlow) notifyInfo(serverMsg, fallback string) {
	msg := serverMsg
	if msg == "" {
		msg = f.locale.Translate(fallback)
	}
	f.notifier.Notify(domain.Notice{Level: domain.NoticeInfo, Message: msg})
}

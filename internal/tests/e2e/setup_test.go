package e2e

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aquadic/souq4u/domain"
	"github.com/aquadic/souq4u/internal/app"
	"github.com/aquadic/souq4u/internal/config"
	"github.com/aquadic/souq4u/internal/infrastructure/auth"
)

var codePattern = regexp.MustCompile(`code is: (\d+)`)

// outbox captures the texts the backend sends
type outbox struct {
	mu   sync.Mutex
	sent map[string][]string
}

func (o *outbox) SendSMS(to, message string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent[to] = append(o.sent[to], message)
	return nil
}

// lastCode returns the most recent code texted to phone
func (o *outbox) lastCode(phone string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	msgs := o.sent[phone]
	if len(msgs) == 0 {
		return ""
	}
	m := codePattern.FindStringSubmatch(msgs[len(msgs)-1])
	if m == nil {
		return ""
	}
	return m[1]
}

func (o *outbox) count(phone string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sent[phone])
}

var _ domain.NotificationService = (*outbox)(nil)

// testEnv is a dev backend on httptest plus the config clients connect with
type testEnv struct {
	t       *testing.T
	cfg     *config.Config
	server  *app.Server
	http    *httptest.Server
	outbox  *outbox
	boltDir string
}

// newTestEnv starts a backend on miniredis and in-memory sqlite. tweak
// runs before the backend is built.
func newTestEnv(t *testing.T, tweak ...func(*config.Config)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)

	cfg, err := config.LoadFile(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	cfg.RedisAddr = mr.Addr()
	cfg.RedisPassword = ""
	cfg.RedisDB = 0
	cfg.DevDSN = fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	cfg.DevGinMode = gin.TestMode
	cfg.JWTSecret = "e2e-secret"
	cfg.ResendWindow = 0
	cfg.OTPPollInterval = 10 * time.Millisecond
	cfg.OTPMaxAttempts = 200
	cfg.InitRetryInterval = 10 * time.Millisecond
	cfg.InitMaxRetries = 1
	for _, fn := range tweak {
		fn(cfg)
	}

	box := &outbox{sent: map[string][]string{}}
	server, err := app.NewServer(cfg, nil,
		app.WithNotificationService(box),
		app.WithCodeHasher(auth.NewCodeHasher(bcrypt.MinCost)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = server.Close() })

	ts := httptest.NewServer(server.Router)
	t.Cleanup(ts.Close)
	cfg.BaseURL = ts.URL

	return &testEnv{t: t, cfg: cfg, server: server, http: ts, outbox: box, boltDir: t.TempDir()}
}

// newClient opens a client on the shared bolt credential file. Only one
// client may hold the file at a time.
func (e *testEnv) newClient(notifier domain.Notifier) *app.Client {
	e.t.Helper()
	cfg := *e.cfg
	cfg.CredentialStore = config.StoreBolt
	cfg.BoltPath = filepath.Join(e.boltDir, "session.db")

	var opts []app.ClientOption
	if notifier != nil {
		opts = append(opts, app.WithClientNotifier(notifier))
	}
	client, err := app.NewClient(&cfg, nil, opts...)
	require.NoError(e.t, err)
	return client
}

// confirm submits code the way the messaging webhook does
func (e *testEnv) confirm(reference, code string) int {
	e.t.Helper()
	body := fmt.Sprintf(`{"reference":%q,"code":%q}`, reference, code)
	resp, err := http.Post(e.http.URL+"/user/otp/confirm", "application/json", strings.NewReader(body))
	require.NoError(e.t, err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

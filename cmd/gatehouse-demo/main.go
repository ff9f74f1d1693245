// Command gatehouse-demo runs a small HTTP server that exercises the engine
// end to end: header-based demo authentication, guarded routes, a filtered
// navigation endpoint, change-event publishing and Prometheus metrics.
//
// It is a showcase, not a production server; real applications embed the
// packages directly.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/gatehouse-dev/gatehouse/pkg/authctx"
	"github.com/gatehouse-dev/gatehouse/pkg/config"
	"github.com/gatehouse-dev/gatehouse/pkg/events"
	"github.com/gatehouse-dev/gatehouse/pkg/middleware"
	"github.com/gatehouse-dev/gatehouse/pkg/nav"
	"github.com/gatehouse-dev/gatehouse/pkg/observability"
	"github.com/gatehouse-dev/gatehouse/pkg/rbac"
	"github.com/gatehouse-dev/gatehouse/pkg/session"
)

func main() {
	port := flag.String("port", "8080", "Port to listen on")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logrus.SetFormatter(&logrus.JSONFormatter{})

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	registry := prometheus.NewRegistry()
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	evalCfg := rbac.Config{
		CacheCapacity: cfg.Evaluator.CacheCapacity,
		CacheTTL:      cfg.Evaluator.CacheTTL,
		SweepInterval: cfg.Evaluator.SweepInterval,
		Logger:        logger,
		Metrics:       metrics,
	}
	sessions := session.NewManager(evalCfg)
	defer sessions.Close()

	notifier := events.NewNotifier(events.NotifierConfig{
		Buffer:  cfg.Events.Buffer,
		Logger:  logger,
		Metrics: metrics,
	})
	defer notifier.Close()
	sessions.Bind(notifier)

	if cfg.Events.RedisAddr != "" {
		bridge, err := events.NewBridge(events.BridgeConfig{
			Addr:     cfg.Events.RedisAddr,
			Password: cfg.Events.RedisPassword,
			Channel:  cfg.Events.RedisChannel,
			Logger:   logger,
		}, notifier)
		if err != nil {
			log.Fatalf("Failed to connect the Redis bridge: %v", err)
		}
		if err := bridge.Start(context.Background()); err != nil {
			log.Fatalf("Failed to start the Redis bridge: %v", err)
		}
		defer bridge.Close()
		logrus.WithField("addr", cfg.Events.RedisAddr).Info("Redis event bridge connected")
	}

	guard := middleware.NewGuard(sessions)

	srv := &demoServer{
		sessions: sessions,
		notifier: notifier,
		policy: nav.Policy{
			HideEmptyGroups: cfg.Nav.HideEmptyGroups,
			HideDisabled:    cfg.Nav.HideDisabled,
		},
		catalog: demoCatalog(),
	}

	router := mux.NewRouter()
	router.Use(demoAuth)
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.HandleFunc("/nav", srv.navHandler).Methods(http.MethodGet)
	router.Handle("/tenants/{tenant}/users",
		guard.RequirePermission("users:read")(http.HandlerFunc(srv.listUsers))).Methods(http.MethodGet)
	router.Handle("/tenants/{tenant}/reports",
		guard.RequireAny("reports:read", "reports:admin")(http.HandlerFunc(srv.listReports))).Methods(http.MethodGet)
	router.Handle("/tenants/{tenant}/settings",
		guard.RequireLevel(rbac.LevelAdmin, "settings")(http.HandlerFunc(srv.settings))).Methods(http.MethodGet)
	router.HandleFunc("/events/permissions-changed", srv.publishPermissionsChanged).Methods(http.MethodPost)
	router.HandleFunc("/events/tenant-changed", srv.publishTenantChanged).Methods(http.MethodPost)

	httpSrv := &http.Server{
		Addr:         ":" + *port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithField("port", *port).Info("gatehouse demo server listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Warn("graceful shutdown failed")
	}
	logrus.Info("server stopped")
}

type demoServer struct {
	sessions *session.Manager
	notifier *events.Notifier
	policy   nav.Policy
	catalog  []*nav.Node
}

// demoAuth builds a principal snapshot from request headers. A real deployment
// replaces this with its session or token layer.
//
//	X-Principal:    principal id (required for authenticated routes)
//	X-System-Admin: "true" marks the principal a system administrator
//	X-Grants:       semicolon-separated grants "role@tenant=perm1,perm2";
//	                empty tenant means a global grant
//	X-Tenant:       active tenant fallback for routes without a tenant var
func demoAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := r.Header.Get("X-Principal"); id != "" {
			p := &rbac.Principal{
				ID:            id,
				IsSystemAdmin: r.Header.Get("X-System-Admin") == "true",
				Roles:         parseGrants(r.Header.Get("X-Grants")),
			}
			ctx = authctx.WithPrincipal(ctx, p)
		}
		if tenant := r.Header.Get("X-Tenant"); tenant != "" {
			ctx = authctx.WithTenant(ctx, tenant)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func parseGrants(raw string) []rbac.RoleGrant {
	if raw == "" {
		return nil
	}
	var grants []rbac.RoleGrant
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		head, permsRaw, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		role, tenant, _ := strings.Cut(head, "@")
		var perms []rbac.Permission
		for _, p := range strings.Split(permsRaw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				perms = append(perms, rbac.Permission(p))
			}
		}
		grants = append(grants, rbac.RoleGrant{
			Role:        role,
			TenantID:    tenant,
			Permissions: perms,
			AssignedAt:  time.Now().UTC(),
		})
	}
	return grants
}

func demoCatalog() []*nav.Node {
	admin := nav.NewGroup("admin", "/admin", "Administration")
	admin.MustAddChild(
		nav.NewItem("users", "/admin/users", "Users").Require("users:read"),
		nav.NewItem("roles", "/admin/roles", "Roles").Require("roles:read"),
		nav.NewItem("platform", "/admin/platform", "Platform"),
	)
	admin.Children[2].SystemOnly = true

	reports := nav.NewGroup("reports", "", "Reports")
	reports.MustAddChild(
		nav.NewItem("sales", "/reports/sales", "Sales").RequireAnyOf("reports:read", "reports:admin"),
		nav.NewItem("audit", "/reports/audit", "Audit").RequireAllOf("reports:read", "audit:read"),
	)

	return []*nav.Node{
		nav.NewHeader("main", "Main"),
		nav.NewItem("dashboard", "/", "Dashboard"),
		nav.NewDivider("d1"),
		admin,
		reports,
	}
}

func (s *demoServer) navHandler(w http.ResponseWriter, r *http.Request) {
	principal := authctx.Principal(r.Context())
	if principal == nil {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	eval := s.sessions.Evaluator(principal)
	if eval == nil {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	filter := nav.NewFilter(nav.FilterConfig{Authorizer: eval, Policy: s.policy})
	tree := filter.Filter(s.catalog, middleware.TenantFromRequest(r))
	if path := r.URL.Query().Get("path"); path != "" {
		tree = nav.MarkActive(tree, path)
	}
	writeJSON(w, tree)
}

func (s *demoServer) listUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"tenant": mux.Vars(r)["tenant"], "resource": "users"})
}

func (s *demoServer) listReports(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"tenant": mux.Vars(r)["tenant"], "resource": "reports"})
}

func (s *demoServer) settings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"tenant": mux.Vars(r)["tenant"], "resource": "settings"})
}

func (s *demoServer) publishPermissionsChanged(w http.ResponseWriter, r *http.Request) {
	var change events.PermissionsChanged
	if err := json.NewDecoder(r.Body).Decode(&change); err != nil || change.PrincipalID == "" {
		http.Error(w, "Invalid payload: principal_id is required", http.StatusBadRequest)
		return
	}
	if err := s.notifier.Publish(events.NewPermissionsChanged(change)); err != nil {
		http.Error(w, "Event system unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *demoServer) publishTenantChanged(w http.ResponseWriter, r *http.Request) {
	var change events.TenantChanged
	if err := json.NewDecoder(r.Body).Decode(&change); err != nil || change.PrincipalID == "" {
		http.Error(w, "Invalid payload: principal_id is required", http.StatusBadRequest)
		return
	}
	if err := s.notifier.Publish(events.NewTenantChanged(change)); err != nil {
		http.Error(w, "Event system unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("failed to encode response")
	}
}

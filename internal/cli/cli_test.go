package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/boddenberg/br-lookup-go/internal/app"
	"github.com/boddenberg/br-lookup-go/internal/config"
	"github.com/boddenberg/br-lookup-go/internal/domain"
	"github.com/boddenberg/br-lookup-go/internal/service"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(defaultBuilder)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// --- validate ---

func TestValidate_Valid(t *testing.T) {
	out, _, err := run(t, "validate", "cnpj", "11.222.333/0001-81")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var res domain.ValidationResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if !res.OK || res.Normalized != "11222333000181" || res.Formatted != "11.222.333/0001-81" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestValidate_InvalidExitsWithError(t *testing.T) {
	out, _, err := run(t, "validate", "cpf", "111.111.111-11")
	if err == nil {
		t.Fatal("expected an error for an invalid CPF")
	}
	if !strings.Contains(out, `"ok": false`) {
		t.Errorf("expected the result to be printed, got %q", out)
	}
}

func TestValidate_UnknownKind(t *testing.T) {
	if _, _, err := run(t, "validate", "rg", "123"); err == nil {
		t.Error("expected an error for an unknown kind")
	}
}

// --- resolve ---

func TestResolve_PrintsRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"state":"DF","cities":["BRASÍLIA"]}`)
	}))
	defer srv.Close()

	catalog := filepath.Join(t.TempDir(), "catalog.yaml")
	yaml := fmt.Sprintf("providers:\n  ddd:\n    - name: brasilapi-ddd\n      url: %s/{id}\n", srv.URL)
	if err := os.WriteFile(catalog, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CATALOG_FILE", catalog)

	out, _, err := run(t, "resolve", "ddd", "61")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var rec domain.RegionRecord
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if rec.State != "DF" || rec.Source != "brasilapi-ddd" {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestResolve_NotFoundListsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	catalog := filepath.Join(t.TempDir(), "catalog.yaml")
	yaml := fmt.Sprintf("providers:\n  bank:\n    - name: brasilapi-banks\n      url: %s/{id}\n", srv.URL)
	if err := os.WriteFile(catalog, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CATALOG_FILE", catalog)

	_, stderr, err := run(t, "resolve", "banco", "999")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(stderr, "brasilapi-banks: not_found") {
		t.Errorf("expected the failure to be listed, got %q", stderr)
	}
}

func TestResolve_UsesInjectedBuilder(t *testing.T) {
	catalog := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(catalog, []byte("providers:\n  ddd:\n    - name: anatel-static\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CATALOG_FILE", catalog)

	var built bool
	build := func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app.App, error) {
		built = true
		cfg.OfficialLookup = false
		return app.Build(ctx, cfg, logger, app.Options{ForceMemoryCache: true})
	}

	var stdout bytes.Buffer
	cmd := newRootCmd(build)
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"resolve", "telefone", "(61) 98143-7533"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !built {
		t.Error("expected the injected builder to be used")
	}
	var rec domain.CarrierRecord
	if err := json.Unmarshal(stdout.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Phone != "61981437533" || rec.Confidence != domain.ConfidenceVeryLow {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.Region == nil || rec.Region.State != "DF" {
		t.Errorf("expected DF region, got %+v", rec.Region)
	}
}

// --- token ---

func TestToken_IssuesValidAdminToken(t *testing.T) {
	t.Setenv("ADMIN_JWT_SECRET", "cli-secret")

	out, _, err := run(t, "token", "--subject", "ops", "--ttl", "5m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := service.NewAdminAuth("cli-secret", time.Minute).Validate(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("token rejected: %v", err)
	}
	if claims.Subject != "ops" {
		t.Errorf("expected subject ops, got %s", claims.Subject)
	}
}

func TestToken_WithoutSecretFails(t *testing.T) {
	t.Setenv("ADMIN_JWT_SECRET", "")

	if _, _, err := run(t, "token"); err == nil {
		t.Error("expected an error without a secret")
	}
}

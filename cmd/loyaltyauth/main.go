package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/loyaltyauth/internal/config"
	"github.com/dropDatabas3/loyaltyauth/internal/identity"
	jwtx "github.com/dropDatabas3/loyaltyauth/internal/jwt"
	"github.com/dropDatabas3/loyaltyauth/internal/oauthstate"
)

type client struct {
	BaseURL   string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) get(path string) (int, []byte, error) {
	resp, err := c.HTTP.Get(strings.TrimRight(c.BaseURL, "/") + path)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func printOut(format string, status int, body []byte) {
	if format == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func printJSON(v any) {
	p, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(p))
}

func main() {
	_ = godotenv.Load()

	var (
		configPath = envOr("CONFIG_PATH", "")
		baseURL    = envOr("LOYALTYAUTH_URL", "http://localhost:8080")
		out        = envOr("LOYALTYAUTH_OUT", "text")
		timeout    = 15 * time.Second
	)

	root := &cobra.Command{
		Use:   "loyaltyauth",
		Short: "CLI operativo para el servicio OAuth de loyalty",
	}
	root.PersistentFlags().StringVar(&configPath, "config", configPath, "YAML config (env CONFIG_PATH)")
	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base del servicio (env LOYALTYAUTH_URL)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: text|json (env LOYALTYAUTH_OUT)")
	root.PersistentFlags().DurationVar(&timeout, "timeout", timeout, "Timeout")

	loadConfig := func() (*config.Config, error) {
		return config.Load(configPath)
	}
	openStates := func() (oauthstate.Store, error) {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		return oauthstate.New(oauthstate.Config{
			Backend: cfg.State.Backend,
			TTL:     cfg.State.TTL,
			Redis: oauthstate.RedisConfig{
				URL:      cfg.State.Redis.URL,
				Addr:     cfg.State.Redis.Addr,
				Password: cfg.State.Redis.Password,
				DB:       cfg.State.Redis.DB,
			},
		})
	}

	// ─── state ───
	stateCmd := &cobra.Command{Use: "state", Short: "Inspección del state store (directo al backend)"}

	stateStats := &cobra.Command{
		Use:   "stats",
		Short: "Cuenta de states por proveedor",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStates()
			if err != nil {
				return err
			}
			defer st.Close()
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			stats, err := st.Stats(ctx)
			if err != nil {
				return err
			}
			printJSON(stats)
			return nil
		},
	}

	stateCleanup := &cobra.Command{
		Use:   "cleanup",
		Short: "Borra states expirados",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStates()
			if err != nil {
				return err
			}
			defer st.Close()
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			n, err := st.CleanupExpired(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("deleted=%d\n", n)
			return nil
		},
	}
	stateCmd.AddCommand(stateStats, stateCleanup)

	// ─── health (vía HTTP) ───
	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Consulta /readyz y /oauth/state/health del servicio",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := &client{BaseURL: baseURL, OutFormat: out, HTTP: &http.Client{Timeout: timeout}}
			for _, p := range []string{"/readyz", "/oauth/state/health"} {
				status, body, err := c.get(p)
				if err != nil {
					return err
				}
				fmt.Printf("# %s (%d)\n", p, status)
				printOut(c.OutFormat, status, body)
			}
			return nil
		},
	}

	// ─── token ───
	tokenCmd := &cobra.Command{Use: "token", Short: "Diagnóstico de JWT"}

	tokenDecode := &cobra.Command{
		Use:   "decode <jwt>",
		Short: "Muestra header y claims sin verificar la firma",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			claims, header, err := jwtx.Decode(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("decode: %w", err)
			}
			printJSON(map[string]any{"header": header, "claims": claims})
			return nil
		},
	}

	tokenVerify := &cobra.Command{
		Use:   "verify <jwt>",
		Short: "Valida un access token con el secreto configurado",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			iss, err := jwtx.NewIssuer(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
			if err != nil {
				return err
			}
			c, err := iss.ParseAccess(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("invalid: %w", err)
			}
			printJSON(c)
			return nil
		},
	}
	tokenCmd.AddCommand(tokenDecode, tokenVerify)

	// ─── admins ───
	adminsCmd := &cobra.Command{Use: "admins", Short: "Allow-list de roles"}

	adminsRole := &cobra.Command{
		Use:   "role <email>",
		Short: "Rol que recibiría el email al loguearse",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			list, path, err := identity.LoadAdminAllowList(cfg.Identity.AdminConfigPath)
			if err != nil {
				return err
			}
			if path == "" {
				path = "(none)"
			}
			fmt.Printf("role=%s source=%s entries=%d\n", list.RoleFor(args[0]), path, list.Len())
			return nil
		},
	}
	adminsCmd.AddCommand(adminsRole)

	root.AddCommand(stateCmd, healthCmd, tokenCmd, adminsCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

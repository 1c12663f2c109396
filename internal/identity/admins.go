package identity

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultAdminConfigPaths se prueban en orden cuando no hay path explícito.
var DefaultAdminConfigPaths = []string{
	"/app/config/admins.json",
	"./config/admins.json",
	"../config/admins.json",
}

// AdminAllowList lista los emails que se elevan al loguearse.
type AdminAllowList struct {
	AdminEmails      []string `yaml:"adminEmails" json:"adminEmails"`
	SuperAdminEmails []string `yaml:"superAdminEmails" json:"superAdminEmails"`
	StaffEmails      []string `yaml:"staffEmails" json:"staffEmails"`
	Description      string   `yaml:"description,omitempty" json:"description,omitempty"`
}

// RoleFor devuelve el rol que le corresponde al email. super_admin gana sobre
// admin y admin sobre staff. Lista nil o email desconocido: RoleCustomer.
func (a *AdminAllowList) RoleFor(email string) Role {
	if a == nil {
		return RoleCustomer
	}
	e := normEmail(email)
	if e == "" {
		return RoleCustomer
	}
	switch {
	case containsEmail(a.SuperAdminEmails, e):
		return RoleSuperAdmin
	case containsEmail(a.AdminEmails, e):
		return RoleAdmin
	case containsEmail(a.StaffEmails, e):
		return RoleStaff
	}
	return RoleCustomer
}

// Len cuenta todas las entradas.
func (a *AdminAllowList) Len() int {
	if a == nil {
		return 0
	}
	return len(a.AdminEmails) + len(a.SuperAdminEmails) + len(a.StaffEmails)
}

// ParseAdminAllowList decodifica JSON o YAML (JSON es YAML válido).
func ParseAdminAllowList(b []byte) (*AdminAllowList, error) {
	var a AdminAllowList
	if err := yaml.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("admin allow-list: %w", err)
	}
	return &a, nil
}

// LoadAdminAllowList lee la allow-list de path o, si path está vacío, del
// primero de DefaultAdminConfigPaths que exista. Devuelve el archivo usado
// ("" si no hubo ninguno). Que no exista no es error: la lista queda vacía.
func LoadAdminAllowList(path string) (*AdminAllowList, string, error) {
	candidates := DefaultAdminConfigPaths
	if strings.TrimSpace(path) != "" {
		candidates = []string{path}
	}
	for _, p := range candidates {
		b, err := os.ReadFile(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, p, fmt.Errorf("admin allow-list %s: %w", p, err)
		}
		a, err := ParseAdminAllowList(b)
		if err != nil {
			return nil, p, err
		}
		return a, p, nil
	}
	return &AdminAllowList{}, "", nil
}

func normEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func containsEmail(list []string, normalized string) bool {
	for _, e := range list {
		if normEmail(e) == normalized {
			return true
		}
	}
	return false
}

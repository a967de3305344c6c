package db

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// Normalize validates dsn for driver. MySQL DSNs always get parseTime so
// timestamp columns scan into time.Time; postgres URLs without a scheme get
// postgres:// prefixed. Keyword/value postgres DSNs are passed through.
func Normalize(driver, dsn string) (string, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return "", fmt.Errorf("empty DSN")
	}
	switch driver {
	case DriverMySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return "", fmt.Errorf("parse mysql dsn: %w", err)
		}
		cfg.ParseTime = true
		return cfg.FormatDSN(), nil
	case DriverPostgres:
		if !strings.Contains(dsn, "://") {
			if strings.Contains(dsn, "=") {
				return dsn, nil
			}
			// allow missing scheme by prefixing postgres://
			dsn = "postgres://" + dsn
		}
		u, err := url.Parse(dsn)
		if err != nil {
			return "", err
		}
		if u.Scheme != "postgres" && u.Scheme != "postgresql" {
			return "", fmt.Errorf("unsupported postgres scheme %q", u.Scheme)
		}
		if strings.Trim(u.Path, "/") == "" {
			return "", fmt.Errorf("postgres dsn has no database name")
		}
		return u.String(), nil
	default:
		return "", fmt.Errorf("unsupported driver %q", driver)
	}
}

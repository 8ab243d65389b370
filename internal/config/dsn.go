package config

import (
	"net"
	"net/url"
	"strings"
)

// Keys that mark a string as a libpq key=value connection list.
var libpqKeys = map[string]bool{
	"host": true, "port": true, "user": true,
	"password": true, "dbname": true, "sslmode": true,
}

func isPostgresURL(s string) bool {
	l := strings.ToLower(s)
	return strings.HasPrefix(l, "postgres://") || strings.HasPrefix(l, "postgresql://")
}

// libpqParams splits a key=value list. ok is false when no known key
// appears, in which case s is not a libpq string.
func libpqParams(s string) (params map[string]string, ok bool) {
	params = make(map[string]string)
	for _, field := range strings.Fields(s) {
		k, v, found := strings.Cut(field, "=")
		if !found {
			continue
		}
		k = strings.ToLower(k)
		params[k] = v
		ok = ok || libpqKeys[k]
	}
	return params, ok
}

// NormalizeDSN cleans DATABASE_URL as pasted into an env file: quotes and
// outer blanks go. A key=value list is collapsed to single spaces and
// gets sslmode=disable unless it names a mode.
func NormalizeDSN(raw string) string {
	s := strings.Trim(strings.TrimSpace(raw), `"'`)
	if s == "" || isPostgresURL(s) {
		return s
	}
	params, ok := libpqParams(s)
	if !ok {
		return s
	}
	s = strings.Join(strings.Fields(s), " ")
	if _, set := params["sslmode"]; !set {
		s += " sslmode=disable"
	}
	return s
}

// ToURLDSN turns a key=value list into the postgres:// form golang-migrate
// reads. Without host, user and dbname the input comes back as is.
func ToURLDSN(dsn string) string {
	if dsn == "" || isPostgresURL(dsn) {
		return dsn
	}
	p, _ := libpqParams(dsn)
	if p["host"] == "" || p["user"] == "" || p["dbname"] == "" {
		return dsn
	}
	return postgresURL(p["host"], p["port"], p["user"], p["password"], p["dbname"], p["sslmode"])
}

// postgresURL escapes credentials, so passwords may contain '@' or '/'.
func postgresURL(host, port, user, password, dbname, sslmode string) string {
	u := url.URL{Scheme: "postgres", Host: host, Path: "/" + dbname}
	if port != "" {
		u.Host = net.JoinHostPort(host, port)
	}
	u.User = url.User(user)
	if password != "" {
		u.User = url.UserPassword(user, password)
	}
	if sslmode != "" {
		u.RawQuery = url.Values{"sslmode": {sslmode}}.Encode()
	}
	return u.String()
}

package api

import (
	"github.com/mssola/user_agent"
	"github.com/sirupsen/logrus"
)

// deviceFields summarizes the client for auth audit entries.
func deviceFields(raw string) logrus.Fields {
	if raw == "" {
		return logrus.Fields{"device": "unknown"}
	}
	ua := user_agent.New(raw)
	browser, version := ua.Browser()
	device := "desktop"
	switch {
	case ua.Bot():
		device = "bot"
	case ua.Mobile():
		device = "mobile"
	}
	return logrus.Fields{
		"device":          device,
		"os":              ua.OS(),
		"platform":        ua.Platform(),
		"browser":         browser,
		"browser_version": version,
	}
}

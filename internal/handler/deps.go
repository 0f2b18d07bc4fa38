package handler

import (
	"rowboatweb/internal/app/notify"
	"rowboatweb/internal/app/session"
	"rowboatweb/internal/configs"
)

type AppDeps struct {
	Config   *configs.AppConfig
	Sessions *session.Manager
	Hub      *notify.Hub
}

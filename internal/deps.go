package internal

import (
	"thevideopool/pool-api/internal/service"
	"thevideopool/pool-api/internal/storage"
	"thevideopool/pool-api/internal/ws"
	"thevideopool/pool-api/pkg/security"

	"gorm.io/gorm"
)

type Deps struct {
	DB       *gorm.DB
	Argon    *security.ArgonHash
	Store    storage.ObjectStore
	Mailer   service.Mailer
	Tasks    service.TaskQueue
	Hub      *ws.Hub
	Archiver *service.Archiver
	Sender   *service.CampaignSender
}

package domain

import "time"

const BackupVersion = 1

// BackupDocument is the JSON body of one backup object.
type BackupDocument struct {
	Version   int                     `json:"version"`
	CreatedAt time.Time               `json:"createdAt"`
	Settings  OpsSettings             `json:"settings"`
	Products  []ProductTrendingRecord `json:"products"`
	Badges    []FireBadge             `json:"badges"`
}

type BackupInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

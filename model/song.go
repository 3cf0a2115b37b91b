package model

// Song is one indexed chart file.
type Song struct {
	SHA256   string  `gorm:"column:sha256;primaryKey" json:"sha256"`
	MD5      string  `gorm:"column:md5" json:"md5"`
	Path     string  `gorm:"column:path" json:"path"`
	Title    string  `gorm:"column:title" json:"title"`
	Artist   string  `gorm:"column:artist" json:"artist"`
	Genre    string  `gorm:"column:genre" json:"genre"`
	Level    float64 `gorm:"column:level" json:"level"`
	Notes    int     `gorm:"column:notes" json:"notes"`
	LengthMS int64   `gorm:"column:length_ms" json:"length_ms"`
}

func (Song) TableName() string {
	return "song"
}

type FileNumToChartPath = map[uint32]string

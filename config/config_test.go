package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "eventpass", cfg.App.Name)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, "uploads", cfg.Storage.BaseDir)
	assert.Equal(t, int64(5<<20), cfg.Upload.MaxPhotoBytes)
	assert.Equal(t, 30*time.Second, cfg.Upload.ReadTimeout)
	assert.Equal(t, "Annual Gathering", cfg.Event.Name)
	assert.Equal(t, FontsConfig{Dir: "fonts"}, cfg.Fonts)
	assert.False(t, cfg.IsProduction())
}

func TestFromViper_TOML(t *testing.T) {
	v := viper.New()
	v.SetConfigType("toml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
[app]
env = "production"

[database]
driver = "postgres"
host = "db"
dbname = "events"
user = "svc"
password = "pw"

[storage]
driver = "s3"
bucket = "photos"
endpoint = "minio:9000"

[event]
organization = "Acme"
name = "Summit"
section = "Delegates"

[fonts]
dir = "/usr/share/fonts/noto"
body = "NotoSans-Regular.ttf"
bold = "NotoSans-Bold.ttf"
`)))

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "host=db port=5432 user=svc password=pw dbname=events sslmode=disable", cfg.Database.DSN())
	assert.Equal(t, "s3", cfg.Storage.Driver)
	assert.True(t, cfg.Storage.UsePathStyle)
	assert.Equal(t, "Acme", cfg.Event.Organization)
	assert.Equal(t, FontsConfig{
		Dir:  "/usr/share/fonts/noto",
		Body: "NotoSans-Regular.ttf",
		Bold: "NotoSans-Bold.ttf",
	}, cfg.Fonts)
}

func TestFromViper_EnvOverride(t *testing.T) {
	t.Setenv("EVENTPASS_STORAGE_BASE_DIR", "/data/photos")
	t.Setenv("EVENTPASS_APP_PORT", "9090")
	t.Setenv("EVENTPASS_FONTS_ITALIC", "Serif-Italic.ttf")

	cfg, err := fromViper(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "/data/photos", cfg.Storage.BaseDir)
	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, "Serif-Italic.ttf", cfg.Fonts.Italic)
}

func TestFromViper_Invalid(t *testing.T) {
	cases := map[string]map[string]any{
		"bad database driver": {"database.driver": "mysql"},
		"s3 without bucket":   {"storage.driver": "s3"},
		"bad storage driver":  {"storage.driver": "ftp"},
		"zero upload limit":   {"upload.max_photo_bytes": 0},
		"postgres no host":    {"database.driver": "postgres", "database.host": ""},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			v := viper.New()
			for k, val := range values {
				v.Set(k, val)
			}
			_, err := fromViper(v)
			assert.Error(t, err)
		})
	}
}

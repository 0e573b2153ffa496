package cssite

import (
	"fmt"
	"log"

	"clearsite/internal/csconfig"
	"clearsite/internal/gormzerologger"
	"clearsite/internal/models/csabout"
	"clearsite/internal/models/cscaptchas"
	"clearsite/internal/models/csgeo"
	"clearsite/internal/models/csleads"
	"clearsite/internal/models/csposts"
	"clearsite/internal/models/cstracker"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	instance *Clearsite
)

// Clearsite holds the shared application state: database, configuration,
// captcha generator and geolocation resolver.
type Clearsite struct {
	Db            *gorm.DB
	Configuration *csconfig.Config
	Captcha       *cscaptchas.Captchas
	Geo           *csgeo.Resolver
	Version       string
	BuildID       string
}

func GetInstance() *Clearsite {
	if instance == nil {
		instance = &Clearsite{}
	}
	return instance
}

func Init(config *csconfig.Config, version string, buildid string) *Clearsite {
	instance = &Clearsite{
		Configuration: config,
		Version:       version,
		BuildID:       buildid,
	}
	instance.initDatabase()
	instance.initCaptcha()
	instance.initGeo()
	return instance
}

func (cs *Clearsite) initCaptcha() {
	cs.Captcha = cscaptchas.New(cs.Configuration.Database.Redis.Addr, cs.Configuration.Database.Redis.Db)
}

func (cs *Clearsite) initGeo() {
	geo, err := csgeo.Open(cs.Configuration.Analytics.GeoIPPath)
	if err != nil {
		log.Fatal(err, "geoip database open failed:")
	}
	cs.Geo = geo
}

func (cs *Clearsite) initDatabase() {
	var err error

	level := "warn"
	if cs.Configuration.Logger.Level == "debug" || !cs.Configuration.Production {
		level = "trace"
	}
	gormLogger := gormzerologger.New(level)

	var db *gorm.DB
	switch cs.Configuration.Database.Db {
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(cs.Configuration.Database.Path), &gorm.Config{
			Logger: gormLogger,
		})
	case "mysql":
		db, err = gorm.Open(mysql.Open(cs.Configuration.Database.Dsn), &gorm.Config{
			Logger: gormLogger,
		})
	default:
		err = fmt.Errorf("database type must be sqlite or mysql")
	}

	if err != nil {
		log.Fatal(err, "database connection failed:")
	}

	err = db.AutoMigrate(
		&cstracker.VisitorSession{},
		&cstracker.PageView{},
		&cstracker.VisitHistory{},
		&csabout.AboutSection{},
		&csleads.NewsletterSubscriber{},
		&csleads.FormSubmission{},
		&csleads.JobApplication{},
		&csleads.CookieConsent{},
		&csposts.Post{},
	)
	if err != nil {
		log.Fatal(err, "migration failed:")
	}

	cs.Db = db
}

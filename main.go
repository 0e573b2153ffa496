package main

import (
	"flag"
	"fmt"
	"os"

	argon2 "github.com/andskur/argon2-hashing"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"clearsite/internal/csconfig"
	"clearsite/internal/cslog"
	"clearsite/internal/csmiddleware"
	"clearsite/internal/models/csmarkdown"
	"clearsite/internal/models/cssite"
)

const VERSION string = "1.0.0"

// global instance
var (
	configuration *csconfig.Config
	BuildID       string
)

func parseCommandLineArgs() (configFile string, shouldCreateExample bool, versionDisplay bool, err error) {
	var config = flag.String("config", "", "Fichier de configuration YAML")
	var example = flag.Bool("example", false, "Créer un fichier de configuration exemple")
	var version = flag.Bool("version", false, "version du produit")
	flag.Parse()

	if *version {
		return "", false, true, nil
	}

	if *example {
		return "", true, false, nil
	}

	if *config == "" {
		return "", false, false, fmt.Errorf("fichier de configuration requis")
	}

	return *config, false, false, nil
}

func initConfiguration() {
	configFile, shouldCreateExample, versionDisplay, err := parseCommandLineArgs()
	if err != nil {
		fmt.Println("Usage:")
		fmt.Println("  clearsite -config clearsite.yaml")
		fmt.Println("  clearsite -example  (pour créer un fichier exemple)")
		fmt.Println("  clearsite -version  (affiche la version)")
		os.Exit(1)
	}

	if versionDisplay {
		println(VERSION)
		os.Exit(0)
	}

	csconfig.CreateExample(shouldCreateExample, configFile)

	conf, err := csconfig.LoadConfig(configFile)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	if conf.Database.Db == "" {
		fmt.Println("❌ database.db ne peut pas être vide")
		os.Exit(1)
	}

	// Au premier lancement, le mot de passe clair est hashé en argon2
	// puis retiré du fichier.
	if conf.User.Pass != "" {
		if len(conf.User.Pass) < 8 {
			fmt.Println("❌ le mot de passe doit contenir au moins 8 caractères")
			os.Exit(1)
		}

		hash, err := argon2.GenerateFromPassword([]byte(conf.User.Pass), argon2.DefaultParams)
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}
		conf.User.Hash = string(hash)
		conf.User.Pass = ""
		if err := csconfig.WriteConfigYaml(configFile, conf); err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}
	}

	configuration = conf
}

func newServer() *gin.Engine {
	if configuration.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	if configuration.TrustedProxies != nil {
		r.SetTrustedProxies(configuration.TrustedProxies)
	}
	if configuration.TrustedPlatform != "" {
		switch configuration.TrustedPlatform {
		case "cloudflare":
			r.TrustedPlatform = gin.PlatformCloudflare
		case "google":
			r.TrustedPlatform = gin.PlatformGoogleAppEngine
		case "flyio":
			r.TrustedPlatform = gin.PlatformFlyIO
		default:
			r.TrustedPlatform = configuration.TrustedPlatform
		}
	}

	return r
}

func startServer(r *gin.Engine) {
	log.Info().Msgf("Website démarré sur http://%s", configuration.Listen.Website)
	log.Info().Msgf("Admin: http://%s/admin/login", configuration.Listen.Website)
	r.Run(configuration.Listen.Website)
}

func main() {
	if BuildID == "" {
		BuildID = VERSION
	}

	initConfiguration()
	cslog.InitLogger(configuration.Logger, configuration.Production)
	csmarkdown.InitMarkdown()
	cssite.Init(configuration, VERSION, BuildID)

	r := newServer()

	csmiddleware.InitMiddleware(r, configuration.Production)
	setRoutes(r)

	startServer(r)
}

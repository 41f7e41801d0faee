package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"user-center/config"
	"user-center/database"
	"user-center/database/model"
	"user-center/logger"
	"user-center/util/crypto"
	"user-center/util/random"
	"user-center/web"

	"github.com/joho/godotenv"
	"github.com/op/go-logging"
	"github.com/spf13/cobra"
)

func initLogging() {
	switch config.GetLogLevel() {
	case config.Debug:
		logger.InitLogger(logging.DEBUG)
	case config.Info:
		logger.InitLogger(logging.INFO)
	case config.Notice:
		logger.InitLogger(logging.NOTICE)
	case config.Warn:
		logger.InitLogger(logging.WARNING)
	case config.Error:
		logger.InitLogger(logging.ERROR)
	default:
		log.Fatal("unknown log level:", config.GetLogLevel())
	}
}

func runWebServer() {
	log.Printf("%v %v", config.GetName(), config.GetVersion())
	initLogging()

	if err := database.InitDB(config.GetDBPath()); err != nil {
		log.Fatal(err)
	}

	server := web.NewServer()
	if err := server.Start(); err != nil {
		log.Println("start web server failed:", err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGINT)
	for {
		sig := <-sigCh

		switch sig {
		case syscall.SIGHUP:
			logger.Info("reloading web server")
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			server = web.NewServer()
			if err := server.Start(); err != nil {
				log.Println("restart web server failed:", err)
				return
			}
		default:
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			logger.CloseLogger()
			return
		}
	}
}

func migrateDB() {
	if err := database.InitDB(config.GetDBPath()); err != nil {
		fmt.Println("migrate failed:", err)
		os.Exit(1)
	}
	fmt.Println("migrate done")
}

// resetAdmin restores access when the admin credentials are lost: it resets
// the first admin account to a fresh random password and prints it once.
func resetAdmin() {
	if err := database.InitDB(config.GetDBPath()); err != nil {
		fmt.Println("reset admin failed:", err)
		os.Exit(1)
	}

	db := database.GetDB()
	admin := &model.User{}
	err := db.Where("role = ?", model.RoleAdmin).Order("id ASC").First(admin).Error
	if err != nil {
		fmt.Println("no admin account found:", err)
		os.Exit(1)
	}

	password := random.Seq(12)
	hash, err := crypto.HashPassword(password)
	if err != nil {
		fmt.Println("reset admin failed:", err)
		os.Exit(1)
	}

	err = db.Model(&model.User{}).Where("id = ?", admin.Id).
		Updates(map[string]any{"password": hash, "active": true}).Error
	if err != nil {
		fmt.Println("reset admin failed:", err)
		os.Exit(1)
	}

	fmt.Printf("admin account reset\n  email:    %s\n  password: %s\n", admin.Email, password)
}

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   config.GetName(),
		Short: "user-center REST backend",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Run the web server",
			Run: func(cmd *cobra.Command, args []string) {
				runWebServer()
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and seed the default admin",
			Run: func(cmd *cobra.Command, args []string) {
				migrateDB()
			},
		},
		&cobra.Command{
			Use:   "reset-admin",
			Short: "Reset the first admin account to a fresh random password",
			Run: func(cmd *cobra.Command, args []string) {
				resetAdmin()
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

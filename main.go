package main

import (
	"log"
	"net/http"

	"github.com/roxas19/DRP/config"
	courseController "github.com/roxas19/DRP/controllers/course"
	livestreamController "github.com/roxas19/DRP/controllers/livestream"
	"github.com/roxas19/DRP/database"
	"github.com/roxas19/DRP/notify"
	"github.com/roxas19/DRP/routers"
	"github.com/roxas19/DRP/services/livestream"
	"github.com/roxas19/DRP/utils"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()

	mailer := utils.NewSendGridMailer()
	hub := notify.NewHub()
	courseController.Mailer = mailer
	livestreamController.Publisher = hub

	app := routers.NewApp(routers.Options{})

	youtube := utils.NewYouTubeClient(database.Database.Db, utils.YouTubeOAuthConfig(), "")
	streams := livestream.New(database.Database.Db, youtube, hub, config.AppConfig.YouTubePlaylistID)
	scheduler, err := livestream.InitializeReminderScheduler(streams, mailer)
	if err != nil {
		log.Fatalf("Failed to start livestream scheduler: %v", err)
	}
	defer scheduler.Stop()

	go func() {
		log.Printf("WebSocket hub is running on port %s", config.AppConfig.WSPort)
		if err := http.ListenAndServe(":"+config.AppConfig.WSPort, hub.Handler()); err != nil {
			log.Fatalf("WebSocket server stopped: %v", err)
		}
	}()

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}

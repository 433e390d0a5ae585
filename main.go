package main

import (
	"time"

	"github.com/forumhq/posts-service/config"
	"github.com/forumhq/posts-service/models"
	"github.com/forumhq/posts-service/repository"
	"github.com/forumhq/posts-service/routes"
	"github.com/forumhq/posts-service/services"
	"github.com/forumhq/posts-service/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.Post{})

	store := repository.NewGormPostStore(db)
	users := services.NewHTTPUserGateway(
		cfg.UsersBaseURL,
		time.Duration(cfg.UsersTimeoutMS)*time.Millisecond,
		cfg.UsersRetries,
		time.Duration(cfg.UsersRetryDelayMS)*time.Millisecond,
		utils.Sugar,
	)
	posts := services.NewPostService(store, users, utils.Sugar)

	r := routes.SetupRouter(posts)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}

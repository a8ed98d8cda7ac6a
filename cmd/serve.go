package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/vibast-solutions/ms-go-clubs/app/controller"
	clubsgrpc "github.com/vibast-solutions/ms-go-clubs/app/grpc"
	"github.com/vibast-solutions/ms-go-clubs/app/middleware"
	"github.com/vibast-solutions/ms-go-clubs/app/service"
	"github.com/vibast-solutions/ms-go-clubs/config"
	"github.com/vibast-solutions/ms-go-clubs/database"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
)

const shutdownTimeout = 10 * time.Second

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC servers",
	Long:  `Start the HTTP (Echo) API and, when INTERNAL_API_KEY is set, the internal gRPC token service.`,
	Run:   runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "apply pending database migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) {
	cfg := bootstrap()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if serveMigrate {
		if err = database.MigrateUp(ctx, db); err != nil {
			logrus.WithError(err).Fatal("Failed to apply migrations")
		}
	}

	pictures, err := service.NewProfilePictureResolver(ctx, cfg.Storage)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to configure object storage")
	}

	mailer, err := service.NewMailer(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to configure mail transport")
	}

	issuer := service.NewTokenIssuer(cfg)
	authService := service.NewAuthService(db, issuer, mailer, cfg)
	userService := service.NewUserService(db, issuer, pictures, cfg)

	var grpcServer *grpc.Server
	if cfg.GRPC.InternalAPIKey != "" {
		grpcServer = startGRPCServer(cfg, authService)
	} else {
		logrus.Warn("INTERNAL_API_KEY is not set, gRPC token service disabled")
	}

	e := newHTTPServer(cfg, authService, userService)
	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("HTTP server shutdown failed")
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
}

func newHTTPServer(cfg *config.Config, authService *service.AuthService, userService *service.UserService) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			if userID, ok := c.Get(middleware.ContextKeyUserID).(uint64); ok {
				fields["user_id"] = userID
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     []string{cfg.App.FrontendURL},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders:    []string{middleware.HeaderNewAccessToken},
		AllowCredentials: true,
	}))

	registerRoutes(e, authService, userService)
	return e
}

func registerRoutes(e *echo.Echo, authService *service.AuthService, userService *service.UserService) {
	authController := controller.NewAuthController(authService)
	userController := controller.NewUserController(userService, authService)
	authMiddleware := middleware.NewAuthMiddleware(authService, userService)

	e.POST("/register", authController.Register)
	e.POST("/login", authController.Login)
	e.POST("/logout", authController.Logout)
	e.POST("/forgot-password", authController.ForgotPassword)
	e.POST("/reset-password", authController.ResetPassword)
	e.GET("/verify-account", authController.VerifyAccount)
	e.POST("/request-verification-token", authController.RequestVerificationToken)

	me := e.Group("/users/me")
	me.Use(authMiddleware.RequireAuth)
	me.GET("", userController.Profile)
	me.PUT("", userController.UpdateProfile)
	me.DELETE("", userController.DeleteAccount)
	me.PUT("/password", userController.ChangePassword)
}

func startGRPCServer(cfg *config.Config, authService *service.AuthService) *grpc.Server {
	grpcAddr := net.JoinHostPort(cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to listen on gRPC port")
	}

	server := clubsgrpc.NewServer(authService, cfg.GRPC.InternalAPIKey)
	go func() {
		if err := clubsgrpc.Serve(server, lis); err != nil {
			logrus.WithError(err).Fatal("Failed to start gRPC server")
		}
	}()
	return server
}

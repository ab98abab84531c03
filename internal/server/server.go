package server

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mdouchement/itemd/internal/database"
	"github.com/mdouchement/itemd/internal/metrics"
	"github.com/mdouchement/itemd/internal/server/middlewares"
	"github.com/sirupsen/logrus"
)

// An IOC is an Iversion Of Control pattern used to init the server package.
type IOC struct {
	Version string
	Gateway *database.Gateway
	Logger  logrus.FieldLogger
}

// EchoEngine instantiates the wep server.
func EchoEngine(ctrl IOC) *echo.Echo {
	metrics.Register()

	engine := echo.New()
	engine.HideBanner = true
	engine.HidePort = true

	engine.Use(middlewares.Metrics())
	engine.Use(middlewares.Logger(ctrl.Logger))
	engine.Use(middleware.Recover())
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig))
	engine.Use(middleware.Gzip())

	engine.Binder = middlewares.NewBinder()
	engine.Validator = middlewares.NewValidator()
	// Error handler
	engine.HTTPErrorHandler = middlewares.HTTPErrorHandler(ctrl.Logger)

	engine.Pre(middleware.Rewrite(map[string]string{
		"^/": "/version",
	}))

	////////////
	// Router //
	////////////

	router := engine.Group("")

	// generic handlers
	//
	router.GET("/version", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"version": ctrl.Version,
		})
	})
	router.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	health := &health{
		gateway: ctrl.Gateway,
	}
	router.GET("/health", health.Check)

	//
	// item handlers
	//
	item := &item{}
	items := router.Group("/items", middlewares.Database(ctrl.Gateway, ctrl.Logger))
	items.POST("", item.Create)
	items.GET("", item.List)
	items.GET("/:id", item.Show)
	items.PUT("/:id", item.Update)
	items.DELETE("/:id", item.Delete)

	return engine
}

// PrintRoutes prints the Echo engin exposed routes.
func PrintRoutes(e *echo.Echo) {
	ignored := map[string]bool{
		"":   true,
		".":  true,
		"/*": true,
	}

	routes := e.Routes()
	sort.Slice(routes, func(i int, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})

	fmt.Println("Routes:")
	for _, route := range routes {
		if ignored[route.Path] {
			continue
		}
		fmt.Printf("%6s %s\n", route.Method, route.Path)
	}
}

func currentDatabase(c echo.Context) database.Client {
	db, ok := c.Get(middlewares.DatabaseContextKey).(database.Client)
	if ok {
		return db
	}
	return nil
}

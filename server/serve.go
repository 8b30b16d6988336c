package server

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"

	"github.com/esm-dev/dynamic-import-vars/internal/importmap"
	"github.com/esm-dev/dynamic-import-vars/transform"
	"github.com/ije/gox/log"
	"github.com/ije/gox/set"
	"github.com/ije/rex"
)

const VERSION = "1.0.0"

// Serve runs the transform HTTP server.
func Serve() {
	var cfile string
	var port int
	var debug bool

	flag.StringVar(&cfile, "config", "config.json", "the config file path")
	flag.IntVar(&port, "port", 0, "the port to listen on (overrides the config)")
	flag.BoolVar(&debug, "debug", false, "run the server in debug mode")
	flag.Parse()

	config := DefaultConfig()
	if existsFile(cfile) {
		c, err := LoadConfig(cfile)
		if err != nil {
			fmt.Println(err.Error())
			os.Exit(1)
		}
		config = c
	}
	if port > 0 {
		config.Port = uint16(port)
	}
	if debug {
		config.LogLevel = "debug"
	}

	logger, err := log.New(fmt.Sprintf("file:%s?buffer=32k&fileDateFormat=20060102", path.Join(config.LogDir, "server.log")))
	if err != nil {
		fmt.Println("failed to initialize logger:", err)
		os.Exit(1)
	}
	logger.SetLevelByName(config.LogLevel)

	accessLogger, err := log.New(fmt.Sprintf("file:%s?buffer=32k&fileDateFormat=20060102", path.Join(config.LogDir, "access.log")))
	if err != nil {
		logger.Fatalf("failed to initialize access logger: %v", err)
	}
	accessLogger.SetQuite(true)

	var im *importmap.ImportMap
	if config.ImportMap != "" {
		data, err := os.ReadFile(config.ImportMap)
		if err != nil {
			logger.Fatalf("failed to read import map %s: %v", config.ImportMap, err)
		}
		im, err = importmap.Parse(data)
		if err != nil {
			logger.Fatalf("failed to parse import map %s: %v", config.ImportMap, err)
		}
		logger.Debugf("import map loaded, %d entries", im.Len())
	}

	transformer, err := transform.New(transform.Config{
		Root:         config.AppDir,
		Resolve:      newResolver(config.AppDir, im),
		HelperModule: config.HelperModule,
		WarnOnError:  config.WarnOnError,
		CacheSize:    config.CacheSize,
		OnWarning: func(msg string, importer string) {
			logger.Warnf("transform %s: %s", importer, msg)
		},
	})
	if err != nil {
		logger.Fatalf("failed to initialize transformer: %v", err)
	}

	rex.Use(
		rex.Header("Server", "dynamic-import-vars"),
		rex.Logger(logger),
		rex.Optional(rex.AccessLogger(accessLogger), config.AccessLog),
		cors(config.CorsAllowOrigins),
		apiRouter(config, transformer, logger),
	)

	C := rex.Serve(rex.ServerConfig{
		Port: config.Port,
	})
	logger.Infof("Server is ready on http://localhost:%d", config.Port)

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGHUP, syscall.SIGABRT)
	select {
	case <-c:
	case err = <-C:
		logger.Error(err)
	}

	logger.FlushBuffer()
	accessLogger.FlushBuffer()
}

func cors(allowOrigins []string) rex.Handle {
	allowList := set.NewReadOnly(allowOrigins...)
	return func(ctx *rex.Context) any {
		origin := ctx.R.Header.Get("Origin")
		isOptionsMethod := ctx.R.Method == "OPTIONS"
		h := ctx.W.Header()
		if allowList.Len() > 0 {
			if origin != "" {
				if !allowList.Has(origin) {
					return rex.Status(403, "forbidden")
				}
				setCorsHeaders(h, isOptionsMethod, origin)
			} else if isOptionsMethod {
				// not a preflight request
				return rex.Status(405, "method not allowed")
			}
			h.Add("Vary", "Origin")
		} else {
			setCorsHeaders(h, isOptionsMethod, "*")
		}
		if isOptionsMethod {
			return rex.NoContent()
		}
		return ctx.Next()
	}
}

func setCorsHeaders(h http.Header, isOptionsMethod bool, origin string) {
	h.Set("Access-Control-Allow-Origin", origin)
	if isOptionsMethod {
		h.Set("Access-Control-Allow-Headers", "*")
		h.Set("Access-Control-Max-Age", "86400")
	}
}

func existsFile(filename string) bool {
	fi, err := os.Lstat(filename)
	return err == nil && !fi.IsDir() && !strings.HasSuffix(filename, "/")
}

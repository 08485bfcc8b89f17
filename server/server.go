// Package server exposes the filter calculator over HTTP: a small HTML form
// at / and a JSON API below /api/.
package server

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/fsnotify/fsnotify"
	"github.com/jpillora/cookieauth"
	"github.com/jpillora/requestlog"
	"github.com/kwertop/probset"
	"github.com/kwertop/probset/cache"
	"github.com/kwertop/probset/server/httpmiddleware"
	"github.com/redis/go-redis/v9"
	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"
)

var logger = log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmsgprefix)

// Server is the calculator web service
type Server struct {
	//config
	Title          string `opts:"help=Title of this instance, env=TITLE, short=t"`
	Port           int    `opts:"help=Listening port, env=PORT, short=p"`
	Host           string `opts:"help=Listening interface (default all), short=i"`
	Auth           string `opts:"help=Optional basic auth in form 'user:password', env=AUTH, short=a"`
	ConfigPath     string `opts:"help=Configuration file path, short=c"`
	KeyPath        string `opts:"help=TLS Key file path, short=k"`
	CertPath       string `opts:"help=TLS Certicate file path, short=r"`
	Log            bool   `opts:"help=Enable request logging, short=l"`
	Open           bool   `opts:"help=Open now with your default browser, short=o"`
	DisableLogTime bool   `opts:"help=Don't print timestamp in log, short=d"`

	version string
	started time.Time
	viper   *viper.Viper

	mu      sync.RWMutex
	config  *Config
	limiter *rate.Limiter
	redis   *redis.Client
	cache   *cache.ComparisonCache
}

// SetVersion sets the version reported by /api/version
func (s *Server) SetVersion(version string) {
	s.version = version
}

// Run the server
func (s *Server) Run() error {
	isTLS := s.CertPath != "" || s.KeyPath != "" //poor man's XOR
	if isTLS && (s.CertPath == "" || s.KeyPath == "") {
		return fmt.Errorf("You must provide both key and cert paths")
	}
	if s.DisableLogTime {
		log.SetFlags(0)
		logger.SetFlags(log.Lmsgprefix)
	}
	if err := s.init(); err != nil {
		return err
	}
	defer s.close()

	host := s.Host
	if host == "" {
		host = "0.0.0.0"
	}
	addr := fmt.Sprintf("%s:%d", host, s.Port)
	proto := "http"
	if isTLS {
		proto += "s"
	}
	if s.Open {
		openhost := host
		if openhost == "0.0.0.0" {
			openhost = "localhost"
		}
		go func() {
			time.Sleep(1 * time.Second)
			open.Run(fmt.Sprintf("%s://%s:%d", proto, openhost, s.Port))
		}()
	}
	logger.Printf("Listening at %s://%s", proto, addr)
	server := http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if isTLS {
		return server.ListenAndServeTLS(s.CertPath, s.KeyPath)
	}
	return server.ListenAndServe()
}

// init loads the configuration and starts watching it for changes
func (s *Server) init() error {
	if s.Title == "" {
		s.Title = "Filter Parameter Calculator"
	}
	s.started = time.Now()
	v, c, err := loadConfig(s.ConfigPath)
	if err != nil {
		return err
	}
	s.viper = v
	if err := s.reconfigure(c); err != nil {
		return fmt.Errorf("initial configure failed: %s", err)
	}
	s.watchConfig()
	return nil
}

func (s *Server) watchConfig() {
	if s.viper.ConfigFileUsed() == "" {
		return
	}
	s.viper.OnConfigChange(func(e fsnotify.Event) {
		logger.Printf("[config] %s changed (%s)", e.Name, e.Op)
		c, err := decodeConfig(s.viper)
		if err != nil {
			logger.Printf("[config] keeping the previous configuration: %v", err)
			return
		}
		if err := s.reconfigure(c); err != nil {
			logger.Printf("[config] reconfigure failed: %v", err)
		}
	})
	s.viper.WatchConfig()
}

// reconfigure swaps in _c_, reconnecting to Redis when its URL changed
func (s *Server) reconfigure(c *Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	client := s.redis
	if s.config == nil || s.config.RedisURL != c.RedisURL {
		if client != nil {
			client.Close()
			client = nil
		}
		if c.RedisURL != "" {
			options, err := probset.ParseRedisURI(c.RedisURL)
			if err != nil {
				return err
			}
			client = probset.NewRedisClient(*options)
			logger.Printf("caching comparisons in redis at %s", options.Address)
		}
	}
	s.redis = client
	s.cache = nil
	if client != nil {
		s.cache = cache.New(client, c.CacheTTL)
	}
	s.limiter = c.Limiter()
	s.config = c
	logger.Printf("Read Config: %+v", *c)
	return nil
}

func (s *Server) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.redis != nil {
		s.redis.Close()
		s.redis = nil
		s.cache = nil
	}
}

func (s *Server) current() (*Config, *cache.ComparisonCache) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config, s.cache
}

func (s *Server) currentLimiter() *rate.Limiter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.limiter
}

// Handler returns the full handler chain. init has to run first.
func (s *Server) Handler() http.Handler {
	//define handler chain, from last to first
	h := http.Handler(http.HandlerFunc(s.handle))
	//gzip
	h = gziphandler.GzipHandler(h)
	//auth
	if s.Auth != "" {
		user := s.Auth
		pass := ""
		if s := strings.SplitN(s.Auth, ":", 2); len(s) == 2 {
			user = s[0]
			pass = s[1]
		}
		auth := cookieauth.New()
		auth.SetUserPass(user, pass)
		auth.SetLogger(logger)
		h = auth.Wrap(h)
		logger.Printf("Enabled HTTP authentication")
	}
	h = httpmiddleware.RateLimit(h, "/api/", s.currentLimiter)
	h = httpmiddleware.Liveness(h)
	h = httpmiddleware.RequestID(h)
	if s.Log {
		h = requestlog.WrapWith(h, requestlog.Options{
			TimeFormat: "2006/01/02 15:04:05.000",
			Format:     `{{ if .Timestamp }}{{ .Timestamp }} {{end}}{{ .Method }} {{ .Path }} {{ .Code }} {{ .Duration }}{{ if .Size }} {{ .Size }}{{end}}{{ if .IP }} ({{ .IP }}){{end}}` + "\n",
		})
	}
	return h
}

func (s *Server) info() map[string]interface{} {
	return map[string]interface{}{
		"title":   s.Title,
		"version": s.version,
		"runtime": strings.TrimPrefix(runtime.Version(), "go"),
		"uptime":  time.Since(s.started).Round(time.Second).String(),
	}
}

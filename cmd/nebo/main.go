package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/dalnet/nebo/internal/bridge"
	"github.com/dalnet/nebo/internal/config"
	"github.com/dalnet/nebo/internal/irc"
	"github.com/dalnet/nebo/internal/storage"
)

// Version information - set at build time via ldflags
var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

const reconnectDelay = 30 * time.Second

func main() {
	foreground := flag.Bool("x", false, "Run in foreground (don't daemonize)")
	configPath := flag.String("c", "./config.yaml", "Path to configuration file (.yaml or .toml)")
	showVersion := flag.Bool("v", false, "Show version information and exit")
	showVersionLong := flag.Bool("version", false, "Show version information and exit")
	flag.Parse()

	if *showVersion || *showVersionLong {
		fmt.Printf("nebo version %s\n", version)
		fmt.Printf("Built: %s\n", buildDate)
		fmt.Printf("Commit: %s\n", gitCommit)
		os.Exit(0)
	}

	irc.Version = version
	irc.BuildDate = buildDate
	irc.GitCommit = gitCommit

	if !*foreground {
		daemonize()
		return
	}

	if err := writePIDFile(); err != nil {
		log.Printf("Warning: could not write PID file: %v", err)
	}

	run(*configPath)
}

// daemonize re-executes the binary detached from the terminal
func daemonize() {
	if os.Getenv("NEBO_DAEMON") == "1" {
		if err := writePIDFile(); err != nil {
			log.Printf("Warning: could not write PID file: %v", err)
		}

		fmt.Printf("Now becoming a daemon\nMy pid is %d, this has been written to pid.txt\n", os.Getpid())

		args := append(os.Args, "-x")
		cmd := exec.Command(args[0], args[1:]...)
		cmd.Env = os.Environ()
		if err := cmd.Start(); err != nil {
			log.Fatalf("Failed to start daemon: %v", err)
		}
		os.Exit(0)
	}

	cmd := exec.Command(os.Args[0], os.Args[1:]...)
	cmd.Env = append(os.Environ(), "NEBO_DAEMON=1")
	if err := cmd.Start(); err != nil {
		log.Fatalf("Failed to fork: %v", err)
	}
	os.Exit(0)
}

func writePIDFile() error {
	return os.WriteFile("pid.txt", []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644)
}

func run(configPath string) {
	if !filepath.IsAbs(configPath) {
		wd, _ := os.Getwd()
		configPath = filepath.Join(wd, configPath)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := storage.EnsureDir(cfg.DataDir); err != nil {
		log.Fatalf("%v", err)
	}

	client, err := irc.NewClient(bridge.ClientOptions(cfg))
	if err != nil {
		log.Fatalf("Failed to create IRC client: %v", err)
	}
	b := bridge.New(cfg, client, bridge.LogSink{})

	stop := make(chan struct{})
	var once sync.Once
	shutdown := func(reason string) {
		once.Do(func() {
			log.Printf("Shutting down: %s", reason)
			close(stop)
			b.Shutdown()
			// the server closes the link after QUIT; don't wait forever
			time.AfterFunc(5*time.Second, client.Disconnect)
		})
	}
	b.OnShutdown = func() { shutdown("requested over IRC") }

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		shutdown(fmt.Sprintf("received signal %v", sig))
	}()

	if cfg.StatusAddr != "" {
		srv := &http.Server{Addr: cfg.StatusAddr, Handler: b.Router(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.Printf("Serving status on %s", cfg.StatusAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Error serving status: %v", err)
			}
		}()
		defer srv.Close()
	}

	for {
		log.Printf("Connecting to %s:%d...", cfg.Server, cfg.Port)
		if err := client.Connect(context.Background()); err != nil {
			log.Printf("Failed to connect: %v", err)
		} else {
			client.Wait()
		}

		select {
		case <-stop:
			log.Println("Stopped")
			return
		case <-time.After(reconnectDelay):
		}
	}
}

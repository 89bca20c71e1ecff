package main

import (
	"crypto/tls"
	"fmt"
	"net"
	"sync"

	"github.com/domsolutions/polyhttp"
	"github.com/domsolutions/polyhttp/internal/authstore"
	"github.com/domsolutions/polyhttp/internal/netconf"
	"github.com/domsolutions/polyhttp/internal/netlog"
	"github.com/domsolutions/polyhttp/internal/servefolder"
	"github.com/domsolutions/polyhttp/internal/sigs"
)

// shutdown is a dedicated close-only signal channel workers select on
// between requests, replacing the ad-hoc sentinel-job pattern DESIGN NOTES
// §9(c) flags in the source's pool_submit/pool_await ("_THREAD_SHUTDOWN_JOB
// is ad-hoc — use a distinct shutdown channel, not a sentinel job").
func runServe(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("polyservd: %w", err)
	}

	netlog.Init(netlog.Options{
		Stdout:     cfg.Log.Stdout,
		Level:      cfg.Log.Level,
		Filename:   cfg.Log.Filename,
		MaxSize:    cfg.Log.MaxSize,
		MaxAge:     cfg.Log.MaxAge,
		MaxBackups: cfg.Log.MaxBackups,
	})
	defer netlog.Sync()
	polyhttp.WarnLogger = func(msg string) { netlog.Warnf("%s", msg) }

	var authProvider *authstore.Store
	if cfg.Auth.Provider == "passwdtable" && cfg.Auth.PasswdFile != "" {
		authProvider, err = authstore.LoadFile(cfg.Auth.PasswdFile, authstore.OptionNone)
		if err != nil {
			return fmt.Errorf("polyservd: load auth table: %w", err)
		}
	}

	var folder *servefolder.Folder
	if cfg.Serve.Root != "" {
		folder = servefolder.New(cfg.Serve.Root, cfg.Serve.Default)
	}

	dispatcher := newFileDispatcher(folder, authProvider)

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("polyservd: listen %s: %w", cfg.Listen, err)
	}
	if cfg.TLS.Enabled {
		cert, err := tls.LoadX509KeyPair(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if err != nil {
			return fmt.Errorf("polyservd: load TLS cert: %w", err)
		}
		ln = tls.NewListener(ln, &tls.Config{
			Certificates: []tls.Certificate{cert},
			NextProtos:   []string{"h2", "http/1.1"},
		})
	}
	netlog.Infof("listening on %s (tls=%v)", cfg.Listen, cfg.TLS.Enabled)

	workers := cfg.Workers
	if workers <= 0 {
		workers = 64
	}
	pool := newPool(workers)

	shutdown := make(chan struct{})
	go func() {
		<-sigs.Terminate()
		netlog.Infof("shutdown signal received")
		close(shutdown)
		ln.Close()
	}()

	var wg sync.WaitGroup
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-shutdown:
				wg.Wait()
				return nil
			default:
				netlog.Errorf("accept: %v", err)
				continue
			}
		}

		wg.Add(1)
		pool.submit(func() {
			defer wg.Done()
			serveConn(conn, dispatcher, shutdown)
		})
	}
}

func loadConfig(path string) (netconf.ServerConfig, error) {
	c, err := netconf.Load(path)
	if err != nil {
		return netconf.ServerConfig{}, err
	}
	var sc netconf.ServerConfig
	if err := c.Unpack(&sc); err != nil {
		return netconf.ServerConfig{}, err
	}
	if sc.Listen == "" {
		sc.Listen = ":8080"
	}
	return sc, nil
}

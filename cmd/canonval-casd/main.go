// Command canonval-casd serves a CAS backend over gRPC.
//
// Backends are linked at build time and selected with --backend, or opened
// from a TOML config file (see storage/casconfig) with --config.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"

	"xdao.co/canonval/storage"
	"xdao.co/canonval/storage/casconfig"
	"xdao.co/canonval/storage/casregistry"
	"xdao.co/canonval/storage/grpccas"

	_ "xdao.co/canonval/storage/localfs"
	_ "xdao.co/canonval/storage/memcas"
)

func main() {
	fs := flag.NewFlagSet("canonval-casd", flag.ExitOnError)
	listen := fs.String("listen", "127.0.0.1:7777", "listen address")
	backend := fs.String("backend", "localfs", "CAS backend name (ignored when --config is set, except as write preference)")
	configPath := fs.String("config", "", "TOML CAS config file (enables multi-backend setups)")
	listBackends := fs.Bool("list-backends", false, "List supported backends and exit")
	logLevel := fs.String("log-level", "info", "log level: trace, debug, info, warn, error")
	logJSON := fs.Bool("log-json", false, "emit JSON logs instead of console output")

	casregistry.RegisterFlags(fs, casregistry.UsageDaemon)

	_ = fs.Parse(os.Args[1:])
	if *listBackends {
		for _, b := range casregistry.List(casregistry.UsageDaemon) {
			if b.Description == "" {
				_, _ = fmt.Fprintf(os.Stdout, "%s\n", b.Name)
				continue
			}
			_, _ = fmt.Fprintf(os.Stdout, "%s\t%s\n", b.Name, b.Description)
		}
		return
	}

	log := newLogger(*logLevel, *logJSON)

	var cas storage.CAS
	var closeFn func() error
	var err error
	if *configPath != "" {
		var cfg casconfig.Config
		cfg, err = casconfig.LoadFile(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("config", *configPath).Msg("load config")
		}
		cas, closeFn, err = cfg.Open(casregistry.UsageDaemon, "")
	} else {
		cas, closeFn, err = casregistry.Open(*backend, casregistry.UsageDaemon)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("open backend")
	}
	if closeFn != nil {
		defer func() { _ = closeFn() }()
	}

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		log.Fatal().Err(err).Str("listen", *listen).Msg("listen")
	}
	defer lis.Close()

	s := grpc.NewServer()
	grpccas.RegisterCASServer(s, &grpccas.Server{CAS: cas})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		s.GracefulStop()
	}()

	log.Info().
		Str("addr", lis.Addr().String()).
		Str("backend", *backend).
		Str("config", *configPath).
		Msg("canonval-casd listening")
	if err := s.Serve(lis); err != nil {
		log.Fatal().Err(err).Msg("serve")
	}
	log.Info().Msg("stopped")
}

func newLogger(level string, jsonOut bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	var log zerolog.Logger
	if jsonOut {
		log = zerolog.New(os.Stderr)
	} else {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return log.Level(lvl).With().Timestamp().Logger()
}

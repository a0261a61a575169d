package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/kardianos/service"
	"go.uber.org/zap"

	"nametags/logging"
)

func main() {
	fmt.Printf("nametags build %s\n", myBuild)

	cfgfile := flag.String("cfg", "nametags.yaml", "Config file")
	envfile := flag.String("env", ".env", "Environment file, skipped if missing")
	control := flag.String("service", "", "Service action: "+fmt.Sprint(service.ControlAction))
	flag.Parse()

	if err := godotenv.Load(*envfile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Load %s: %v\n", *envfile, err)
		os.Exit(1)
	}

	cfg, err := loadConfig(*cfgfile, os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Load config: %v\n", err)
		os.Exit(1)
	}

	flush, err := logging.Setup(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Init logging: %v\n", err)
		os.Exit(1)
	}
	defer flush()
	log := zap.S()

	prg := &program{
		cfg: cfg,
		fail: func(err error) {
			log.Errorf("Stopped: %v", err)
			flush()
			os.Exit(1)
		},
	}
	svc, err := service.New(prg, serviceConfig(*cfgfile))
	if err != nil {
		log.Fatalf("Init service: %v", err)
	}

	if *control != "" {
		if err := service.Control(svc, *control); err != nil {
			log.Fatalf("Service %s: %v", *control, err)
		}
		log.Infof("Service %s done", *control)
		return
	}

	if err := svc.Run(); err != nil {
		log.Fatalf("Run: %v", err)
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/Septrum101/dynhostMon/app/router"
	"github.com/Septrum101/dynhostMon/common/logfile"
	"github.com/Septrum101/dynhostMon/config"
	"github.com/Septrum101/dynhostMon/controller"
)

func main() {
	os.Exit(run())
}

func run() int {
	config.ShowVersion()

	// init config
	getConfig := config.GetConfig()
	c, err := config.Load(getConfig)
	if err != nil {
		fmt.Println("Invalid configuration, exiting:", err)
		return 1
	}

	fmt.Printf("Opening '%s'...\n", c.LogPathFile)
	logPath, err := config.ReadLogPath(c.LogPathFile)
	if err != nil {
		fmt.Printf("Could not read '%s': %v\nDefaulting to log path %s\n", c.LogPathFile, err, logPath)
	}

	logFile, err := logfile.Setup(logPath, c.LogLevel)
	if err != nil {
		fmt.Println("Could not open log file, exiting:", err)
		return 1
	}
	defer func() { logFile.Close() }()
	fmt.Println("Logging to", logPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// hot reload configure
	reload := make(chan *config.Config, 1)
	lastTime := time.Now()
	getConfig.OnConfigChange(func(e fsnotify.Event) {
		if time.Now().After(lastTime.Add(time.Second * 3)) {
			log.Infoln("Config file changed:", e.Name)
			nc, err := config.Load(getConfig)
			if err != nil {
				log.Errorf("Ignoring config change: %v", err)
				return
			}
			select {
			case reload <- nc:
			default:
			}
		}
		lastTime = time.Now()
	})
	if getConfig.ConfigFileUsed() != "" {
		getConfig.WatchConfig()
	}

	fmt.Printf("Opening '%s'...\n", c.AccountsFile)
	accounts, err := config.LoadAccounts(c.AccountsFile)
	if err != nil {
		fmt.Println("Could not load accounts, exiting:", err)
		return 1
	}
	fmt.Printf("Done! Loaded %d accounts\n", len(accounts))

	for {
		nc, err := serve(ctx, c, accounts, reload)
		if nc != nil {
			c = nc
			logFile, logPath = reloadLog(logFile, logPath, c)
			if a, err := config.LoadAccounts(c.AccountsFile); err != nil {
				log.Errorf("Keeping the previous accounts: %v", err)
			} else {
				accounts = a
			}
			continue
		}

		if ctx.Err() != nil {
			log.Infoln(config.AppName, "Stopped by signal")
			return 0
		}
		log.Error(err)
		return 1
	}
}

// serve connects to the router and runs the loop until it ends or a new
// configuration arrives on reload, which is then returned.
func serve(ctx context.Context, c *config.Config, accounts []*config.Account, reload <-chan *config.Config) (*config.Config, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sess, err := router.Connect(runCtx, c.Router)
	if err != nil {
		return nil, err
	}
	log.Infof("Connected to router %s", c.Router.Host)

	s, err := controller.New(c, sess, accounts)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	done := make(chan error, 1)
	go func() {
		done <- s.Run(runCtx)
	}()

	select {
	case err := <-done:
		return nil, err
	case nc := <-reload:
		log.Infoln(config.AppName, "Restarting with the new configuration")
		cancel()
		<-done
		return nc, nil
	}
}

// reloadLog applies the log level of c and moves the output when the log
// path file now names another destination. On failure the current file stays.
func reloadLog(cur *os.File, curPath string, c *config.Config) (*os.File, string) {
	p, err := config.ReadLogPath(c.LogPathFile)
	if err != nil {
		log.Warnf("Could not read '%s': %v; using %s", c.LogPathFile, err, p)
	}

	if p == curPath {
		if l, err := log.ParseLevel(c.LogLevel); err == nil {
			log.SetLevel(l)
		}
		return cur, curPath
	}

	f, err := logfile.Setup(p, c.LogLevel)
	if err != nil {
		log.Errorf("Keeping log file %s: %v", curPath, err)
		return cur, curPath
	}
	cur.Close()
	log.Infof("Logging to %s, moved from %s", p, curPath)

	return f, p
}

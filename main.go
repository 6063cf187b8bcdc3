// Package main provides the entry point for the Room Studio application.
package main

import (
	"log"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"

	"room-studio/internal/app"
	"room-studio/internal/asset"
	"room-studio/internal/edit"
	"room-studio/internal/storage"
	"room-studio/internal/version"
	"room-studio/ui/mainwindow"
	"room-studio/ui/prefs"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s v%s", version.AppName, version.Version)

	docs, err := storage.OpenDefault("room-studio")
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	assets, err := asset.NewStore(docs)
	if err != nil {
		log.Fatalf("Failed to load assets: %v", err)
	}

	client := edit.NewClientFromEnv()
	if !client.Configured() {
		log.Println("FAL_KEY is not set; edit operations will be rejected until it is configured")
	}

	state := app.NewState(docs, assets, client)
	appPrefs := prefs.Load()

	a := fyneapp.NewWithID(version.AppID)
	a.Settings().SetTheme(&app.StudioTheme{})

	win := mainwindow.New(a, state, appPrefs, client)

	setupHotReload(win)

	win.Show()
	a.Run()
}

// setupHotReload offers a restart when a newer binary appears, which keeps
// edit sessions flowing during development.
func setupHotReload(win *mainwindow.Window) {
	reloader := app.NewHotReloader(2 * time.Second)
	if reloader == nil {
		log.Println("Hot reload: unable to determine executable path")
		return
	}

	log.Printf("Hot reload: watching %s (modified %s)",
		reloader.ExecPath(), reloader.StartupTime().Format("15:04:05"))

	reloader.OnTick(func() {
		fyne.Do(win.SavePreferences)
	})

	reloader.OnNewBinary(func() {
		log.Println("Hot reload: newer binary detected")
		fyne.Do(func() {
			dialog.ShowConfirm("New Version Available",
				"The application binary has been updated.\nRestart now?",
				func(restart bool) {
					if !restart {
						reloader.ResetBaseline()
						reloader.Start()
						return
					}
					win.SavePreferences()
					log.Println("Hot reload: restarting...")
					if err := reloader.Restart(); err != nil {
						log.Printf("Hot reload: restart failed: %v", err)
					}
				}, win.Window())
		})
	})

	reloader.Start()
}

package main

import (
	"fmt"
	"os"

	"github.com/ostafen/sigscan/cmd/cmd"
	"github.com/ostafen/sigscan/internal/env"
)

func main() {
	PrintLogo()

	os.Exit(cmd.Execute())
}

func PrintLogo() {
	fmt.Println("     _")
	fmt.Println(" ___(_) __ _ ___  ___ __ _ _ __")
	fmt.Println("/ __| |/ _` / __|/ __/ _` | '_ \\")
	fmt.Println("\\__ \\ | (_| \\__ \\ (_| (_| | | | |")
	fmt.Println("|___/_|\\__, |___/\\___\\__,_|_| |_|")
	fmt.Println("       |___/")
	fmt.Println()
	fmt.Println("Signature based PE file scanner")
	fmt.Println()
	fmt.Printf("Version:   %s\n", env.Version)
	fmt.Printf("Commit:    %s\n", env.CommitHash)
	fmt.Printf("Build Time: %s\n", env.BuildTime)
	fmt.Println(" ")
}

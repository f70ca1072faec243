package main

import "github.com/ValentinKolb/povms/cmd"

func main() {
	cmd.Execute()
}

package main

import (
	"os"

	"git.solver4all.com/azaryc2s/flowcover"
	log "github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) < 2 {
		log.Printf("No arguments passed!")
		return
	}
	files, err := flowcover.ExpandInputs(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	for _, fileName := range files {
		if err = writeBackFile(fileName); err != nil {
			log.Errorf("At %s: %s", fileName, err)
		}
	}
}

func writeBackFile(fileName string) error {
	fileContent, err := os.ReadFile(fileName)
	if err != nil {
		return err
	}
	sanitized := flowcover.SanitizeJsonArrayLineBreaks(string(fileContent))
	return os.WriteFile(fileName, []byte(sanitized), 0644)
}

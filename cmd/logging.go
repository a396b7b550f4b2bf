/*
Copyright (c) YugabyteDB, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type MyFormatter struct{}

var levelList = []string{
	"PANIC",
	"FATAL",
	"ERROR",
	"WARN",
	"INFO",
	"DEBUG",
	"TRACE",
}

func (mf *MyFormatter) Format(entry *log.Entry) ([]byte, error) {
	level := levelList[int(entry.Level)]
	fileName, line := "", 0
	if entry.HasCaller() {
		fileName, line = filepath.Base(entry.Caller.File), entry.Caller.Line
	}
	// 2024-03-23 12:16:42 INFO summarizeCommand.go:27 Logging initialised.
	msg := fmt.Sprintf("%s %s %s:%d %s\n",
		entry.Time.Format("2006-01-02 15:04:05"), level,
		fileName, line, entry.Message)
	return []byte(msg), nil
}

func InitLogging(logDir string, cmdName string) {
	if logDir == "" {
		log.SetOutput(io.Discard)
		return
	}
	logFileName := filepath.Join(logDir, "logs", fmt.Sprintf("yb-querysummary-%s.log", cmdName))

	// lumberjack creates the "logs" folder and the file when missing.
	logRotator := &lumberjack.Logger{
		Filename:   logFileName,
		MaxSize:    200, // MB
		MaxBackups: 10,
	}
	log.SetOutput(logRotator)

	log.SetReportCaller(true)
	log.SetFormatter(&MyFormatter{})
	log.Info("Logging initialised.")
	redactSecretsFromArgs()
	log.Infof("Args: %v", os.Args)
}

// source db uris may carry a password
func redactSecretsFromArgs() {
	for i, arg := range os.Args {
		switch {
		case arg == "--source-db-uri" && i+1 < len(os.Args):
			os.Args[i+1] = "XXX"
		case strings.HasPrefix(arg, "--source-db-uri="):
			os.Args[i] = "--source-db-uri=XXX"
		}
	}
}

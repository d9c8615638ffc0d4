// Command trialctl операторская утилита: расчет состояния триала,
// просмотр файлового хранилища уведомлений и выпуск тестовых токенов.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// Package middleware содержит HTTP middleware для обработки запросов.
// Включает аутентификацию, логирование, сжатие ответов, ограничение частоты
// запросов и проверку доверенных подсетей.
package middleware

package model

type Route string

const (
	HomeRoute  Route = "home"
	AboutRoute Route = "about"
)

type Session struct {
	Route Route `json:"route"`
}

package domain

// Models lists every persisted type in migration order
func Models() []interface{} {
	return []interface{}{
		&User{},
		&Script{},
		&ScriptVersion{},
		&Collaborator{},
		&Comment{},
		&ShareLink{},
		&Session{},
		&Notification{},
		&ActivityLog{},
	}
}

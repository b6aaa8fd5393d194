package entity

type EditKind string

const (
	EditComment       EditKind = "comment"
	EditLike          EditKind = "like"
	EditMessage       EditKind = "message"
	EditDeleteComment EditKind = "delete-comment"
)

type EditState string

const (
	EditPending    EditState = "pending"
	EditCommitted  EditState = "committed"
	EditRolledBack EditState = "rolled_back"
)

// OptimisticEdit is owned by the view that began it until it is committed or
// rolled back.
type OptimisticEdit struct {
	Kind    EditKind  `json:"kind"`
	LocalID string    `json:"local_id"`
	Target  string    `json:"target"`
	State   EditState `json:"state"`
}

func (e OptimisticEdit) Committed() bool { return e.State == EditCommitted }

package value

// Version is a schema/protocol version tag. Structurally a plain unsigned
// integer, but carried as its own kind so the Builder can suppress it: the
// canonical binary form leaves the version implicit while the text form
// retains it.
type Version uint32

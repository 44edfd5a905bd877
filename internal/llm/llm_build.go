package llm

// LlamaBuilt reports whether the in-process llama.cpp runtime is compiled in.
func LlamaBuilt() bool { return llamaBuilt }
